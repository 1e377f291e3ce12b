// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// RefreshTokenTable represents the 'users.refreshtoken' table
type RefreshTokenTable struct {
	Table       string
	TokenHash   string
	UserID      string
	Seq         string
	RotatedFrom string
	IssuedAt    string
}

// RefreshToken is the per-identity list of live refresh-token digests.
// Seq preserves insertion order; a Replace keeps the slot's Seq.
var RefreshToken = RefreshTokenTable{
	Table:       "users.refreshtoken",
	TokenHash:   "tokenhash",
	UserID:      "userid",
	Seq:         "seq",
	RotatedFrom: "rotatedfrom",
	IssuedAt:    "issuedat",
}
