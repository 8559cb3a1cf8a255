// Package models defines the player roster types and the JSON codec of the
// live event feed.
//
// Feed frames carry a "type" discriminator:
//
//	{"type":"PlayerAdded","player":{"id":2,"name":"Bob","age":null}}
//	{"type":"PlayerUpdated","player":{"id":2,"name":"Bob","age":31}}
//	{"type":"PlayerDeleted","id":2}
//
// Unknown types are skipped so newer backends can add variants.
package models
