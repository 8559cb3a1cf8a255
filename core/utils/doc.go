// Package utils provides small conversion helpers shared by the HTTP layers,
// mostly for turning loosely typed request input into player fields.
package utils
