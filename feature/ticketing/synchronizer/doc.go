/*
Package synchronizer reconciles the ticketing data of an organization with its providers.

A run takes the organization lock without waiting, then synchronizes every active
connection in parallel. Each connection goes through:

	idle -> fetching -> diffing -> locking -> applying -> committed | failed

Fetching and diffing happen outside any transaction. The apply transaction locks the
connection row, re-checks the watermark read at the start of the run, writes the plan
and moves the watermark to the instant the run started.

A failed connection records its error on the connection row and never affects the
others. After a commit the fetched payload is archived and an outcome event is
published; both are best effort.
*/
package synchronizer
