package i18n

// Message key constants to avoid hardcoded strings.
// Use these constants with T() or TLang() functions.

// Dashboard UI
const (
	MsgAppTitle   = "app.title"
	MsgAppTagline = "app.tagline"

	MsgCardChat       = "card.chat"
	MsgCardWeather    = "card.weather"
	MsgCardSoil       = "card.soil"
	MsgCardPest       = "card.pest"
	MsgCardMarket     = "card.market"
	MsgCardCalculator = "card.calculator"
	MsgCardCalendar   = "card.calendar"
	MsgCardFeedback   = "card.feedback"

	MsgStatusOnline  = "status.online"
	MsgStatusOffline = "status.offline"
	MsgThemeDark     = "theme.dark"
	MsgThemeLight    = "theme.light"
)

// Language selection
const (
	MsgLangSwitchPrompt = "lang.switch_prompt"
	MsgLangSwitched     = "lang.switched"
	MsgLangSelected     = "lang.selected"
	MsgLangAutoSelected = "lang.auto_selected"
)

// Card content
const (
	MsgSoilTitle      = "soil.title"
	MsgSoilTipPH      = "soil.tip_ph"
	MsgSoilTipOrganic = "soil.tip_organic"
	MsgSoilTipTest    = "soil.tip_test"

	MsgPestTitle     = "pest.title"
	MsgPestTipScout  = "pest.tip_scout"
	MsgPestTipNeem   = "pest.tip_neem"
	MsgPestTipRotate = "pest.tip_rotate"

	MsgMarketTitle      = "market.title"
	MsgMarketTipCompare = "market.tip_compare"
	MsgMarketTipGrade   = "market.tip_grade"
	MsgMarketTipStorage = "market.tip_storage"

	MsgWeatherSummary     = "weather.summary"
	MsgWeatherUnavailable = "weather.unavailable"
	MsgChatFallback       = "chat.fallback"
	MsgChatSystemPrompt   = "chat.system_prompt"
	MsgFeedbackThanks     = "feedback.thanks"
	MsgFeedbackNotify     = "feedback.notify"
)

// Error messages
const (
	MsgErrorInternal            = "error.internal"
	MsgErrorInvalidBody         = "error.invalid_body"
	MsgErrorUnsupportedLanguage = "error.unsupported_language"
	MsgErrorUnauthorized        = "error.unauthorized"
	MsgErrorNotFound            = "error.not_found"
	MsgErrorRateLimited         = "error.rate_limited"
	MsgErrorProviderUnavailable = "error.provider_unavailable"
	MsgErrorWeatherNotFound     = "error.weather_not_found"
	MsgErrorWeatherTimeout      = "error.weather_timeout"
	MsgErrorUnknownCard         = "error.unknown_card"
	MsgErrorTextRequired        = "error.text_required"
)

// CLI messages
const (
	MsgCliAppName        = "cli.app_name"
	MsgCliUsage          = "cli.usage"
	MsgCliStartWeb       = "cli.start_web"
	MsgCliCommandUsage   = "cli.command_usage"
	MsgCliOptions        = "cli.options"
	MsgCliOptPort        = "cli.opt_port"
	MsgCliOptBind        = "cli.opt_bind"
	MsgCliOptDebug       = "cli.opt_debug"
	MsgCliOptHelp        = "cli.opt_help"
	MsgCliOptVersion     = "cli.opt_version"
	MsgCliCommands       = "cli.commands"
	MsgCliCmdDetect      = "cli.cmd_detect"
	MsgCliCmdSettings    = "cli.cmd_settings"
	MsgCliExamples       = "cli.examples"
	MsgCliExampleStart   = "cli.example_start"
	MsgCliExampleDetect  = "cli.example_detect"
	MsgCliExampleNotify  = "cli.example_notify"
	MsgCliUnknownCommand = "cli.unknown_command"
	MsgCliDetectResult   = "cli.detect_result"
	MsgCliDetectSuggest  = "cli.detect_suggest"
	MsgCliDetectUsage    = "cli.detect_usage"
)

// Settings messages
const (
	MsgSettingsUsage        = "settings.usage"
	MsgSettingsTitle        = "settings.title"
	MsgSettingsNotSet       = "settings.not_set"
	MsgSettingsUnknownKey   = "settings.unknown_key"
	MsgSettingsInvalidValue = "settings.invalid_value"
	MsgSettingsSaved        = "settings.saved"
	MsgSettingsRemoved      = "settings.removed"
	MsgSettingsStoreFailed  = "settings.store_failed"
	MsgSettingsChannels     = "settings.channels"
	MsgSettingsNoChannels   = "settings.no_channels"
	MsgSettingsTestText     = "settings.test_text"
	MsgSettingsTestSent     = "settings.test_sent"
	MsgSettingsTestFailed   = "settings.test_failed"
)

// Serve messages
const (
	MsgServeConfigLoadFailed = "serve.config_load_failed"
	MsgServeConfigSaveFailed = "serve.config_save_failed"
	MsgServePortSaved        = "serve.port_saved"
	MsgServePortInUse        = "serve.port_in_use"
	MsgServeAccessUrls       = "serve.access_urls"
)

// Log messages
const (
	MsgLogServeStarting         = "log.serve_starting"
	MsgLogDbInitFailed          = "log.db_init_failed"
	MsgLogWebServiceStarted     = "log.web_service_started"
	MsgLogShuttingDown          = "log.shutting_down"
	MsgLogServiceStopped        = "log.service_stopped"
	MsgLogServiceStartFailed    = "log.service_start_failed"
	MsgLogBindNonLoopback       = "log.bind_non_loopback"
	MsgLogNotifyChannelsReload  = "log.notify_channels_reloaded"
	MsgLogNotifySendFailed      = "log.notify_send_failed"
	MsgLogTelegramInitFailed    = "log.telegram_init_failed"
	MsgLogTelegramChatIdInvalid = "log.telegram_chat_id_invalid"
	MsgLogDiscordInitFailed     = "log.discord_init_failed"
	MsgLogWsClientConnected     = "log.ws_client_connected"
	MsgLogWsClientDisconnected  = "log.ws_client_disconnected"
	MsgLogUserExitTray          = "log.user_exit_tray"
	MsgLogWorkspaceCreated      = "log.workspace_created"
	MsgLogWorkspaceClosed       = "log.workspace_closed"
)

// Tray menu
const (
	MsgTrayOpenWebUI = "tray.open_web_ui"
	MsgTrayAddress   = "tray.address"
	MsgTrayLanguage  = "tray.language"
	MsgTrayQuit      = "tray.quit"
)
