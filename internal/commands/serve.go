package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"KrishiMitra/internal/dashboard"
	"KrishiMitra/internal/database"
	"KrishiMitra/internal/handlers"
	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/langstore"
	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/notify"
	"KrishiMitra/internal/provider"
	"KrishiMitra/internal/refetch"
	"KrishiMitra/internal/tray"
	"KrishiMitra/internal/version"
	"KrishiMitra/internal/web"
	"KrishiMitra/internal/webconfig"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const proberCacheDuration = time.Minute

func RunServe(args []string) int {
	cfg, err := webconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, i18n.T(i18n.MsgServeConfigLoadFailed, map[string]interface{}{"Error": err.Error()})+"\n")
		return 1
	}

	portOverride := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--port", "-p":
			if i+1 < len(args) {
				i++
				fmt.Sscanf(args[i], "%d", &cfg.Server.Port)
				portOverride = true
			}
		case "--bind", "-b":
			if i+1 < len(args) {
				i++
				cfg.Server.Bind = args[i]
			}
		case "--debug":
			cfg.SetDebug()
		}
	}

	if portOverride {
		if err := webconfig.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, i18n.T(i18n.MsgServeConfigSaveFailed, map[string]interface{}{"Error": err.Error()})+"\n")
		} else {
			fmt.Println(i18n.T(i18n.MsgServePortSaved, map[string]interface{}{"Port": cfg.Server.Port}))
		}
	}

	logger.Init(cfg.Log)
	logger.Log.Info().Str("version", version.Version).Msg(i18n.T(i18n.MsgLogServeStarting))

	if err := database.Init(cfg.Database, cfg.IsDebug()); err != nil {
		logger.Log.Error().Err(err).Msg(i18n.T(i18n.MsgLogDbInitFailed))
		return 1
	}
	defer database.Close()

	settingRepo := database.NewSettingRepo()
	activityRepo := database.NewActivityRepo()

	wsHub := web.NewWSHub(cfg.Server.CORSOrigins)
	go wsHub.Run()
	defer wsHub.Stop()

	// Provider clients default to the process language; each request pins
	// the client's own language with WithLanguage.
	processLang := refetch.FixedLanguage(i18n.GetLanguage())
	chatClient := provider.NewChatClient(provider.ChatConfig{
		URL:     cfg.Providers.Chat.URL,
		APIKey:  cfg.Providers.Chat.APIKey,
		Model:   cfg.Providers.Chat.Model,
		Timeout: seconds(cfg.Providers.Chat.TimeoutSec),
	}, processLang)
	weatherClient := provider.NewWeatherClient(provider.WeatherConfig{
		URL:     cfg.Providers.Weather.URL,
		APIKey:  cfg.Providers.Weather.APIKey,
		Timeout: seconds(cfg.Providers.Weather.TimeoutSec),
	}, processLang)

	var probes []provider.Endpoint
	if chatClient.Configured() {
		probes = append(probes, provider.Endpoint{Name: "chat", URL: cfg.Providers.Chat.URL})
	}
	if weatherClient.Configured() {
		probes = append(probes, provider.Endpoint{Name: "weather", URL: cfg.Providers.Weather.URL})
	}
	prober := provider.NewProber(probes, proberCacheDuration)

	workspaces := dashboard.NewManager(dashboard.Options{
		Settings:   settingRepo,
		Activities: activityRepo,
		Pusher:     wsHub,
		UI: func(clientID string) langstore.UIAdapter {
			return wsHub.ClientUI(clientID)
		},
		Weather:       weatherClient,
		WeatherCity:   cfg.Providers.Weather.DefaultCity,
		DebounceDelay: time.Duration(cfg.Refetch.DebounceMS) * time.Millisecond,
		RefetchDebug:  cfg.Refetch.Debug,
		IdleTimeout:   time.Duration(cfg.Workspace.IdleMinutes) * time.Minute,
	})
	defer workspaces.Close()

	wsHub.OnConnect(func(clientID string) {
		ws := workspaces.Get(clientID)
		_ = wsHub.SendTo(clientID, dashboard.ChannelLanguage, "snapshot", ws.Store.Snapshot())
	})
	wsHub.OnInbound(func(clientID string, msg web.InboundMessage) {
		ws := workspaces.Get(clientID)
		ws.Touch()
		switch msg.Type {
		case "connectivity":
			if msg.Online != nil {
				ws.ReportConnectivity(*msg.Online)
			}
		case "language":
			code := i18n.Language(strings.ToLower(strings.TrimSpace(msg.Language)))
			if err := ws.Store.SetLanguage(code); err != nil {
				logger.HTTP.Warn().Str("client", clientID).Str("language", msg.Language).Err(err).Msg("ws language change rejected")
			}
		}
	})

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go workspaces.Run(bgCtx)

	notifyMgr := notify.NewManager()
	notifyMgr.Reload(settingRepo)

	sessionHandler := handlers.NewSessionHandler(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour, workspaces)
	languageHandler := handlers.NewLanguageHandler(workspaces, cfg.Detection.LinguaHint)
	cardsHandler := handlers.NewCardsHandler(workspaces)
	chatHandler := handlers.NewChatHandler(workspaces, chatClient)
	weatherHandler := handlers.NewWeatherHandler(workspaces, weatherClient, cfg.Providers.Weather.DefaultCity)
	feedbackHandler := handlers.NewFeedbackHandler(workspaces, notifyMgr)
	eventsHandler := handlers.NewEventsHandler(workspaces, activityRepo)
	healthHandler := handlers.NewHealthHandler(workspaces, prober)

	router := web.NewRouter()

	router.POST("/api/v1/session", sessionHandler.Create)
	router.DELETE("/api/v1/session", sessionHandler.End)

	router.GET("/api/v1/language", languageHandler.Get)
	router.PUT("/api/v1/language", languageHandler.Set)
	router.POST("/api/v1/language/detect", languageHandler.Detect)
	router.POST("/api/v1/language/auto", languageHandler.Auto)
	router.GET("/api/v1/language/supported", languageHandler.Supported)
	router.GET("/api/v1/translate", languageHandler.Translate)
	router.POST("/api/v1/theme/toggle", languageHandler.ToggleTheme)
	router.PUT("/api/v1/connectivity", languageHandler.Connectivity)

	router.GET("/api/v1/cards", cardsHandler.List)
	router.GET("/api/v1/cards/", cardsHandler.Get)

	router.POST("/api/v1/chat", chatHandler.Ask)
	router.GET("/api/v1/weather", weatherHandler.Get)
	router.POST("/api/v1/feedback", feedbackHandler.Submit)

	router.GET("/api/v1/activities", eventsHandler.Activities)
	router.GET("/api/v1/activities/stats", eventsHandler.Stats)
	router.GET("/api/v1/events/stream", eventsHandler.Stream)

	router.GET("/api/v1/ws", wsHub.HandleWS(cfg.Auth.JWTSecret))
	router.GET("/api/v1/health", healthHandler.Check)
	router.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	skipAuthPaths := []string{
		"/api/v1/session",
		"/api/v1/health",
		"/api/v1/ws",
		"/metrics",
	}

	chatLimiter := web.NewRateLimiter(orDefault(cfg.RateLimit.ChatPerMinute, 20), time.Minute, bgCtx)
	sessionLimiter := web.NewRateLimiter(30, time.Minute, bgCtx)

	handler := web.Chain(
		router,
		web.RecoveryMiddleware,
		web.SecurityHeadersMiddleware,
		web.RequestIDMiddleware,
		web.RequestLogMiddleware,
		web.CORSMiddleware(cfg.Server.CORSOrigins),
		web.MaxBodySizeMiddleware(1<<20),
		web.LanguageMiddleware,
		web.RateLimitMiddleware(sessionLimiter, []string{"/api/v1/session"}),
		web.RateLimitMiddleware(chatLimiter, []string{"/api/v1/chat"}),
		web.AuthMiddleware(cfg.Auth.JWTSecret, skipAuthPaths),
	)

	if cfg.Server.Bind != "127.0.0.1" && cfg.Server.Bind != "localhost" {
		logger.Log.Warn().Str("bind", cfg.Server.Bind).Msg(i18n.T(i18n.MsgLogBindNonLoopback))
	}

	addr := cfg.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n"+i18n.T(i18n.MsgServePortInUse, map[string]interface{}{"Port": cfg.Server.Port})+"\n\n")
		logger.Log.Error().Int("port", cfg.Server.Port).Err(err).Msg(i18n.T(i18n.MsgLogServiceStartFailed))
		return 1
	}
	logger.Log.Info().Str("addr", addr).Msg(i18n.T(i18n.MsgLogWebServiceStarted))

	printBanner(cfg)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	stop := make(chan struct{})
	var stopOnce sync.Once
	shutdown := func() { stopOnce.Do(func() { close(stop) }) }

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Log.Info().Msg(i18n.T(i18n.MsgLogShuttingDown))
		case <-stop:
		}
		shutdown()
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error().Err(err).Msg(i18n.T(i18n.MsgLogServiceStartFailed))
			shutdown()
		}
	}()

	if tray.HasGUI() {
		go func() {
			<-stop
			tray.Quit()
		}()
		tray.Run(addr, func(lang i18n.Language) {
			applyTrayLanguage(workspaces, lang)
		}, func() {
			logger.Log.Info().Msg(i18n.T(i18n.MsgLogUserExitTray))
			shutdown()
		})
	}
	<-stop

	// let open tabs show a reconnect banner instead of a dead socket
	wsHub.Broadcast("system", "shutdown", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)

	logger.Log.Info().Msg(i18n.T(i18n.MsgLogServiceStopped))
	return 0
}

// applyTrayLanguage switches the process language and every open client.
// The tray is the local operator's control, so it speaks for all of them.
func applyTrayLanguage(workspaces *dashboard.Manager, lang i18n.Language) {
	i18n.SetLanguage(string(lang))
	workspaces.Each(func(ws *dashboard.Workspace) {
		if err := ws.Store.SetLanguageFrom(lang, "tray"); err != nil {
			logger.Log.Warn().Err(err).Str("client", ws.ClientID).Msg("tray language change failed")
		}
	})
}

func printBanner(cfg webconfig.Config) {
	const boxWidth = 60

	padLine := func(content string) string {
		displayWidth := 0
		for _, r := range content {
			if r > 127 {
				displayWidth += 2
			} else {
				displayWidth++
			}
		}
		padding := boxWidth - displayWidth
		if padding < 0 {
			padding = 0
		}
		return content + strings.Repeat(" ", padding)
	}

	fmt.Printf("\n  ╔════════════════════════════════════════════════════════════╗\n")
	fmt.Printf("  ║  %s║\n", padLine("KrishiMitra "+version.String()))
	fmt.Printf("  ╠════════════════════════════════════════════════════════════╣\n")
	fmt.Printf("  ║  %s║\n", padLine(i18n.T(i18n.MsgServeAccessUrls)))
	fmt.Printf("  ╟────────────────────────────────────────────────────────────╢\n")

	if cfg.Server.Bind == "0.0.0.0" || cfg.Server.Bind == "" {
		fmt.Printf("  ║  %s║\n", padLine(fmt.Sprintf("➜ http://localhost:%d", cfg.Server.Port)))
		if addrs, err := net.InterfaceAddrs(); err == nil {
			for _, a := range addrs {
				if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
					fmt.Printf("  ║  %s║\n", padLine(fmt.Sprintf("➜ http://%s:%d", ipnet.IP.String(), cfg.Server.Port)))
				}
			}
		}
	} else {
		fmt.Printf("  ║  %s║\n", padLine(fmt.Sprintf("➜ http://%s:%d", cfg.Server.Bind, cfg.Server.Port)))
	}

	fmt.Printf("  ╚════════════════════════════════════════════════════════════╝\n\n")
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
