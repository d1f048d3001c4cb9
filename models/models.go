// Package models bundles the default membrane topology model description.
package models

import _ "embed"

// TMHMM is a 46-state model: start, end, an inside and an outside loop,
// and two 21-state helix chains, one per crossing direction. It carries
// the standard 9-line header.
//
//go:embed tmhmm.model
var TMHMM string

// MotifLength is the helix chain length of TMHMM.
const MotifLength = 21
