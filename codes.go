package asyncftp

// Reply codes from RFC 959 used by the client.
const (
	ReplyDataConnectionAlreadyOpen = 125 // transfer starting
	ReplyFileStatusOkay            = 150 // about to open data connection

	ReplyCommandOkay              = 200
	ReplySystemStatus             = 211
	ReplyDirectoryStatus          = 212
	ReplyFileStatus               = 213
	ReplyServiceReady             = 220
	ReplyClosingControlConnection = 221
	ReplyClosingDataConnection    = 226 // requested file action successful
	ReplyEnteringPassiveMode      = 227
	ReplyUserLoggedIn             = 230
	ReplyFileActionOkay           = 250

	ReplyNeedPassword      = 331
	ReplyFileActionPending = 350

	ReplyServiceNotAvailable    = 421
	ReplyCantOpenDataConnection = 425
	ReplyConnectionClosed       = 426
	ReplyFileError              = 550
)
