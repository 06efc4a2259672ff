// Package utils provides loose-type conversion helpers.
// Provider payloads mix numbers, strings and booleans for the same field; these helpers normalize
// them before the values reach the lite records.
package utils
