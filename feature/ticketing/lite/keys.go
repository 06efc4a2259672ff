package lite

// SerieKey identifies a series within one connection.
type SerieKey string

// Less orders keys lexically.
func (k SerieKey) Less(o SerieKey) bool {
	return k < o
}

// CategoryKey identifies a ticket category within its series.
type CategoryKey struct {
	Serie string
	ID    string
}

// Less orders by series then id.
func (k CategoryKey) Less(o CategoryKey) bool {
	if k.Serie != o.Serie {
		return k.Serie < o.Serie
	}
	return k.ID < o.ID
}

// EventKey identifies an event within its series.
type EventKey struct {
	Serie string
	ID    string
}

// Less orders by series then id.
func (k EventKey) Less(o EventKey) bool {
	if k.Serie != o.Serie {
		return k.Serie < o.Serie
	}
	return k.ID < o.ID
}

// SalesKey identifies the sales fact of one category at one event.
type SalesKey struct {
	Serie    string
	Event    string
	Category string
}

// Less orders by series, event, then category.
func (k SalesKey) Less(o SalesKey) bool {
	if k.Serie != o.Serie {
		return k.Serie < o.Serie
	}
	if k.Event != o.Event {
		return k.Event < o.Event
	}
	return k.Category < o.Category
}

// EventKey returns the key of the event the fact belongs to.
func (k SalesKey) EventKey() EventKey {
	return EventKey{Serie: k.Serie, ID: k.Event}
}

// CategoryKey returns the key of the category the fact belongs to.
func (k SalesKey) CategoryKey() CategoryKey {
	return CategoryKey{Serie: k.Serie, ID: k.Category}
}
