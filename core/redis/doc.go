// Package redis builds the optional go-redis client shared by the redis lock backend.
package redis
