// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// FederatedIdentityTable represents the 'users.federatedidentity' table
type FederatedIdentityTable struct {
	Table     string
	Provider  string
	Subject   string
	UserID    string
	CreatedAt string
}

// FederatedIdentity links an external provider account to a local identity.
var FederatedIdentity = FederatedIdentityTable{
	Table:     "users.federatedidentity",
	Provider:  "provider",
	Subject:   "subject",
	UserID:    "userid",
	CreatedAt: "createdat",
}
