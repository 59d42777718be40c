// Package cli implements the interactive FaceKeeper shell.
//
// Commands
//
//	help                     show available commands
//	enroll [principal]       capture a reference face
//	login [principal]        verify your face (and one-time code if set up)
//	reset-face [--all]       delete your reference face, or every one
//	setup-2fa                issue a TOTP secret and backup codes
//	2fa-status               show second factor state
//	add                      add an account
//	edit <id>                change an account
//	list                     list accounts
//	due                      list accounts whose password should change
//	stats                    password strength summary
//	generate [length]        generate a password
//	copy <id>                verify, then copy a password to the clipboard
//	show <id>                verify, then print a password
//	delete <id>              delete an account
//	logout                   end the session
//	exit | quit              leave the program
//
// Ctrl-C while a verification is running cancels it.
package cli
