package sys

// --- Message Constants ---

const (
	// --- Infrastructure & Lifecycle ---
	MsgConfigFailedToLoad  = "Failed to load config: %v"
	MsgConfigMissingToken  = "DISCORD_TOKEN is not set in .env file"
	MsgDatabaseInitSuccess = "Database initialized successfully"
	MsgDatabaseTableError  = "failed to create table"
	MsgDatabasePragmaError = "failed to set pragma %s"
	MsgDaemonStarting      = "Starting..."
	MsgBotStarting         = "Starting %s..."
	MsgBotReady            = "%s is ready! (ID: %s) (PID: %d) (Took: %dms)"
	MsgBotShutdown         = "Shutting down %s..."
	MsgBotRegisterFail     = "Command registration failed: %v"
	MsgGenericError        = "%v"

	// --- Command Loader & Registry ---
	MsgLoaderSyncCommands   = "Syncing %s commands..."
	MsgLoaderUpToDate       = "[LOADER] Commands are up to date. (Hash: %s)"
	MsgLoaderDevStarting    = "[DEV] Registering commands to guild: %s"
	MsgLoaderDevRegistered  = "[DEV] Registered: %s"
	MsgLoaderDevFail        = "[DEV] Registration failed: %v"
	MsgLoaderProdStarting   = "[PROD] Registering commands globally..."
	MsgLoaderProdRegistered = "[PROD] Registered: %s"
	MsgLoaderProdFail       = "[PROD] Global registration failed"
	MsgLoaderPanicRecovered = "Panic recovered in handler: %v"

	// --- Scheduler ---
	MsgSchedulerSleeping   = "Sleeping for %.2f hours until %s (%s %s)"
	MsgSchedulerRegistered = "Scheduled %s daily at %s %s (next run %s)"
	MsgSchedulerDisabled   = "%s is disabled, not scheduling"
	MsgSchedulerRunFailed  = "Scheduled run of %s failed: %v"
	MsgSchedulerCancelled  = "Cancelled %s"

	// --- Quote of the Day ---
	MsgQuoteNoQuote       = "No valid quote found."
	MsgQuoteNoImage       = "No valid image found."
	MsgQuoteRenamed       = "Server renamed to: \"%s\""
	MsgQuoteFailed        = "Rename process failed: %v"
	MsgQuoteCardPostFail  = "Failed to post card to %s: %v"
	MsgQuoteIconsReset    = "Every icon has been used once, starting over."
	MsgQuoteIconMarkFail  = "Failed to remember used icon %s: %v"
	MsgQuoteRunRecordFail = "Failed to record run: %v"
	MsgQuoteIconStateFail = "Used icon state unavailable (%s): %v"

	// --- Song of the Day ---
	MsgSongBusyLog          = "Song search already in progress. Skipping new request."
	MsgSongBusy             = "⚠️ Song search is already running. Please wait for it to finish."
	MsgSongMusicNotFound    = "Music channel not found: %v"
	MsgSongPostNotFound     = "Song post channel not found: %v"
	MsgSongNoLinkLog        = "No valid music link found in music channel."
	MsgSongNoLink           = "⚠️ No valid music link found in music channel."
	MsgSongAnnouncement     = "🎵 **Song of the Day** (from %s):\n%s"
	MsgSongAnnouncementName = "🎵 **Song of the Day** (from %s): **%s**\n%s"
	MsgSongPosted           = "Posted song of the day: %s"
	MsgSongFailed           = "Song post failed: %v"
	MsgSongLookupFail       = "Title lookup failed for %s: %v"

	// --- Card ---
	MsgCardFontLoadFail    = "Failed to load font '%s': %v"
	MsgCardFontMissing     = "Font '%s' cannot render '%c' (U+%04X)"
	MsgCardFontSupports    = "Font '%s' supports full string: \"%s\""
	MsgCardNameFallback    = "Fallback: %s '%s' has unsupported glyphs, using 'Unknown'"
	MsgCardRenderFailed    = "Card generation failed, not posting: %v"
	MsgCardRenderRecovered = "panic while rendering card: %v"

	// --- Commands ---
	MsgCommandWorking     = "Working on it..."
	MsgCommandRenameStart = "Rename triggered by %s in %s"
	MsgCommandSongStart   = "Song triggered by %s in %s"
	MsgCommandNotReady    = "Still starting up, try again in a moment."
)
