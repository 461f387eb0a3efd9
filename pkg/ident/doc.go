/*
Package ident generates the compact identifiers Breeze uses for users,
sessions, files, messages, and verification codes.

Every id is 16 lowercase hex characters: 12 from a cryptographic random
source plus 4 from a monotonically increasing process-wide counter. The
counter suffix keeps ids minted within the same instant distinct without
coordination, while the random prefix keeps them unguessable across
processes.

Identifiers are fixed-width so they fit the CHAR(16) relational columns and
the search-index keyword fields without truncation.

# Usage

	uid := ident.New()      // "9f3b2a6c1e4d0001"
	ssid := ident.New()     // login session id
	fileID := ident.New()   // blob store key
*/
package ident
