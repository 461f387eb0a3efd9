/*
Package model defines the domain objects shared across Breeze services: the
user profile, the message envelope with its tagged payload union, and the
blob-store metadata shapes.

All types carry JSON tags because they travel on two wires: the JSON-encoded
gRPC bodies between services and the broker payload between the transmit and
storage services. Field names follow the persisted snake_case convention so a
payload captured off either wire reads the same as the stored document.

# Message Envelope

MessageInfo is the canonical message object. The transmit service builds it
once (minting message_id and timestamp, resolving the sender profile) and
every downstream consumer reuses it verbatim:

	MessageInfo
	├── message_id       16-hex, minted at transmit time
	├── chat_session_id  conversation key
	├── timestamp        unix seconds
	├── sender           UserInfo (resolved profile)
	└── message          MessageContent
	    ├── message_type 0=string 1=image 2=file 3=speech
	    └── exactly one of string_message / image_message /
	        file_message / speech_message

For binary payloads the content fields are populated on the way in, swapped
for a file_id by the storage service, and filled back in by history reads.
*/
package model
