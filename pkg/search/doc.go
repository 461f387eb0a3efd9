// Package search maintains the Elasticsearch side of the user and message
// stores. Profiles are indexed for people search and text messages for
// in-session content search, both tokenized with ik_max_word.
package search
