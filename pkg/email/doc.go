// Package email sends the verification codes behind email registration and
// login.
package email
