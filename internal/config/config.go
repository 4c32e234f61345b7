package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-IDLookup/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go ID Lookup"
	AppID             = "com.github.tartampluch.go-idlookup"
	KeyringService    = "com.github.tartampluch.go-idlookup"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	SettingsFileName  = "config.toml"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagTUI          = "tui"
	FlagConfig       = "config"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescTUI      = "Run the terminal interface instead of the desktop window"
	FlagDescConfig   = "Path to a TOML settings file (terminal mode)"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Identifier Input & Debounce
// -----------------------------------------------------------------------------

const (
	// MinValidationLength is the input length from which a remote format check is scheduled.
	MinValidationLength = 10

	// IDNumberLength is the structural length of a complete identifier.
	IDNumberLength = 13

	// DebounceDelay is the typing pause required before the format check fires.
	DebounceDelay = 500 * time.Millisecond
)

// -----------------------------------------------------------------------------
// Preferences (GUI mode)
// -----------------------------------------------------------------------------

const (
	SettingsWindowWidth = 520
	LookupWindowWidth   = 560
	LookupWindowHeight  = 480
	HolidaysWinWidth    = 520
	HolidaysWinHeight   = 420
	LayoutColumnsDouble = 2

	PrefServiceURL = "service_url"
	PrefAPIUser    = "api_user"
	PrefLanguage   = "language"
	PrefServerPort = "server_port"
	PrefLastRun    = "last_run_version"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "af"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle       = "win_title"
	TKeyWinSettings    = "win_settings_title"
	TKeyMenuSettings   = "menu_settings"
	TKeyLblIDNumber    = "lbl_id_number"
	TKeyPlaceholderID  = "placeholder_id_number"
	TKeyBtnSearch      = "btn_search"
	TKeyBtnReset       = "btn_reset"
	TKeyBtnSave        = "btn_save"
	TKeyBtnCancel      = "btn_cancel"
	TKeyLblDOB         = "lbl_date_of_birth"
	TKeyLblGender      = "lbl_gender"
	TKeyLblCitizenship = "lbl_citizenship"
	TKeyLblHolidays    = "lbl_holidays"
	TKeyLblSearchCount = "lbl_search_count"
	TKeyLblBirthdayHol = "lbl_birthday_holiday"
	TKeyLblLanguage    = "lbl_language"
	TKeyLblServiceURL  = "lbl_service_url"
	TKeyHelpServiceURL = "help_service_url"
	TKeyLblAPIUser     = "lbl_api_user"
	TKeyLblAPIKey      = "lbl_api_key"
	TKeyLblPort        = "lbl_server_port"
	TKeyHelpPort       = "help_port"
	TKeyErrSettings    = "err_settings_invalid"
	TKeyBtnHolidays    = "btn_show_holidays"
	TKeyWinHolidays    = "win_holidays_title"
	TKeyColDate        = "col_date"
	TKeyColName        = "col_name"
	TKeyColType        = "col_type"
	TKeyLblFooter      = "lbl_footer" // Requires Version

	// Validation messages shown under the input.
	TKeyMsgTooShort      = "msg_too_short"
	TKeyMsgValidFormat   = "msg_valid_format"
	TKeyMsgInvalidFormat = "msg_invalid_format"
	TKeyMsgValidateError = "msg_validation_error"

	// Search outcome messages.
	TKeyMsgSearchInvalid = "msg_search_invalid"
	TKeyMsgSearchFailed  = "msg_search_failed"
	TKeyMsgReload        = "msg_reload"

	// Notification texts.
	TKeyNotifSearchError   = "notif_search_error"
	TKeyNotifHolidaysOK    = "notif_holidays_loaded"
	TKeyNotifHolidaysError = "notif_holidays_error"
	TKeyNotifFatal         = "notif_unexpected_error"

	// View labels.
	TKeyGenderMale    = "gender_male"
	TKeyGenderFemale  = "gender_female"
	TKeyGenderUnknown = "gender_unknown"
	TKeyCitizen       = "citizen"
	TKeyResident      = "permanent_resident"
	TKeyHolidayCount  = "holiday_count" // Requires Count

	// Template data keys.
	TDataCount   = "Count"
	TDataYear    = "Year"
	TDataVersion = "Version"
	TDataValue   = "Value"
)

// -----------------------------------------------------------------------------
// Holidays Table
// -----------------------------------------------------------------------------

const (
	ColIDDate = 0
	ColIDName = 1
	ColIDType = 2
	ColCount  = 3

	ColWidthDate = 110
	ColWidthName = 260
	ColWidthType = 120

	SortIconAsc      = " ▲"
	SortIconDesc     = " ▼"
	TablePlaceholder = "Placeholder Text"
	BirthdayMarker   = " ★"
)

// -----------------------------------------------------------------------------
// Terminal Front-end
// -----------------------------------------------------------------------------

const (
	KeyQuit   = "ctrl+c"
	KeyEscape = "esc"
	KeySearch = "enter"
	KeyReset  = "ctrl+r"
	KeyToggle = "tab"

	TUIHelp        = "enter: search • ctrl+r: reset • tab: holidays • esc: quit"
	TUIPrompt      = "ID> "
	TUIMaxToasts   = 3
	TUIEventBuffer = 16
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultServiceURL = "http://127.0.0.1:8000"
	DefaultPort       = "18081"
	DefaultLanguage   = "en"

	GenderMale   = "male"
	GenderFemale = "female"
)

// -----------------------------------------------------------------------------
// View Classes (badges & input state)
// -----------------------------------------------------------------------------

const (
	BadgeMale     = "badge-male"
	BadgeFemale   = "badge-female"
	BadgeNeutral  = "badge-neutral"
	BadgeCitizen  = "badge-citizen"
	BadgeResident = "badge-resident"

	ClassValidating = "is-validating"
	ClassValid      = "is-valid"
	ClassInvalid    = "is-invalid"
	ClassHasError   = "has-error"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Go ID Lookup//Engine//EN"
	ICalCalName = "Public holidays"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "goidlookup"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropCategories  = "CATEGORIES"
	PropDescription = "DESCRIPTION"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	// CategoryBirthday marks holidays that fall on the identity's date of birth.
	CategoryBirthday = "BIRTHDAY"


	// StubVCalendar is the minimal valid iCalendar object served before any lookup completes
	// or when the birth year has no holidays.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	DateFormatISO  = "2006-01-02"
	DateFormatLong = "2 January 2006"

	FormatUID = "%s-%s@%s"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 15 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	MaxHTTPResponseSize = 4 * 1024 * 1024 // 4MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"

	// Remote lookup service routes.
	RouteValidate = "/api/id/validate"
	RouteSearch   = "/api/id/search"
	RouteHolidays = "/api/holidays/%d.ics"

	// Local feed server routes.
	RouteCalendar = "/calendar.ics"
	RouteIdentity = "/identity.vcf"
	RouteMetrics  = "/metrics"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderAccept          = "Accept"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAPIKey          = "X-API-Key"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeJSON            = "application/json"
	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeVCard           = "text/vcard; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrPortRequired    = "server port is required"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrEmptyIdentifier = "identifier is empty"
	ErrEmptyResponse   = "service returned no data"
	ErrUnexpectedStat  = "service returned unexpected status"
	ErrRequestBuild    = "failed to create request"
	ErrNetwork         = "network error during lookup"
	ErrDecodeResponse  = "failed to decode service response"
	ErrICalDecode      = "failed to decode holiday calendar"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrVCardEncode     = "failed to encode vCard data"
	ErrLogFile         = "failed to open log file"
	ErrCacheDir        = "could not determine user cache dir"
	ErrConfigDir       = "could not determine user config dir"
	ErrCreateDir       = "could not create app cache dir"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrSettingsRead    = "failed to read settings file"
	ErrSettingsParse   = "failed to parse settings file"
	ErrSettingsInvalid = "invalid settings"
	ErrKeyringWrite    = "failed to store API key"
	ErrPanicRecovered  = "recovered from unexpected panic"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "No lookup completed yet, please try again shortly."
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

// Fallback texts are used whenever the localizer is missing or lacks a key.
const (
	FallbackUnknown        = "-"
	FallbackTooShort       = "ID number is too short (13 digits required)."
	FallbackValidFormat    = "ID number format is valid."
	FallbackInvalidFormat  = "ID number format is invalid."
	FallbackValidateError  = "Could not validate the ID number. Please try again."
	FallbackSearchInvalid  = "The ID number could not be verified."
	FallbackSearchFailed   = "The lookup service is unavailable. Please try again later."
	FallbackReload         = "Something went wrong. Please reload the application."
	FallbackNotifSearchErr = "Search failed"
	FallbackHolidaysOK     = "Public holidays loaded for %d."
	FallbackHolidaysError  = "Public holidays could not be loaded."
	FallbackNotifFatal     = "Unexpected error"
	FallbackGenderMale     = "Male"
	FallbackGenderFemale   = "Female"
	FallbackGenderUnknown  = "Unknown"
	FallbackCitizen        = "Citizen"
	FallbackResident       = "Permanent resident"
	FallbackHolidayCount   = "%d public holidays"
	FallbackPlaceholderID  = "13-digit ID number"
	FallbackLblDOB         = "Date of birth"
	FallbackLblGender      = "Gender"
	FallbackLblCitizenship = "Citizenship"
	FallbackLblSearchCount = "Times searched"
	FallbackLblHolidays    = "Public holidays"

	TitleStartupError = "Startup Error"

	MsgPortBusy         = "Port %s is busy or unavailable."
	MsgAppStop          = "Application stopped gracefully"
	MsgCtxCancel        = "Context cancelled, shutting down UI"
	MsgAppStarting      = "Starting application"
	MsgServerListen     = "HTTP server listening"
	MsgServerStop       = "Shutting down HTTP server..."
	MsgFeedUpdated      = "Feed cache updated"
	MsgLocaleSkip       = "Skipping non-locale file"
	MsgLocaleBadName    = "Skipping malformed locale filename"
	MsgLocaleLoaded     = "Locale loaded successfully"
	MsgTransMissing     = "Missing translation key"
	MsgKeyFail          = "API key retrieval failed (might be empty)"
	MsgLogWarning       = "Warning: %s at %s: %v\n"
	MsgValidateSchedule = "Format check scheduled"
	MsgValidateDone     = "Format check completed"
	MsgValidateFailed   = "Format check failed"
	MsgStaleDiscarded   = "Discarding stale completion"
	MsgSearchSkipped    = "Search skipped"
	MsgSearchStarted    = "Search started"
	MsgSearchDone       = "Search completed"
	MsgSearchRejected   = "Search rejected by service"
	MsgSearchFailed     = "Search failed"
	MsgHolidaysStarted  = "Holiday retrieval started"
	MsgHolidaysDone     = "Holiday retrieval completed"
	MsgHolidaysFailed   = "Holiday retrieval failed"
	MsgComponentReset   = "Component reset"
	MsgComponentClosed  = "Component closed"
	MsgLookupRequest    = "Calling lookup service"
	MsgSettingsSaved    = "Settings saved"
	MsgOpenWindow       = "Opening holidays window"
	MsgTableSorted      = "Holidays table sorted"

	PlaceholderURL = "https://..."
)

// Notification titles.
const (
	NotifTitleSearch   = AppName
	NotifTitleHolidays = "Public holidays"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyUser      = "user"
	LogKeyValue     = "value"
	LogKeyCount     = "count"
	LogKeyDuration  = "duration_ms"
	LogKeyLength    = "length"
	LogKeyValid     = "valid"
	LogKeySearchID  = "search_id"
	LogKeyYear      = "year"
	LogKeyReason    = "reason"
	LogKeyPanic     = "panic"
	LogKeyRoute     = "route"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeySortCol   = "sort_col"
	LogKeySortAsc   = "sort_asc"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyDate    = "date"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI     = "ui"
	CompUISet  = "ui_settings"
	CompTUI    = "tui"
	CompSearch = "search"
	CompLookup = "lookup"
	CompEngine = "engine"
	CompServer = "server"
	CompMain   = "main"
	CompI18n   = "i18n"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

const (
	MetricsNamespace = "idlookup"

	MetricLabelResult = "result"
	MetricLabelRoute  = "route"

	ResultValid   = "valid"
	ResultInvalid = "invalid"
	ResultError   = "error"
	ResultOK      = "ok"
	ResultStale   = "stale"
)
