// Package bot provides the Telegram bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/config"
	"telegram-duel-bot/internal/duel"
	"telegram-duel-bot/internal/game/roulette"
	"telegram-duel-bot/internal/handler"
	"telegram-duel-bot/internal/pkg/lock"
	"telegram-duel-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot     *tele.Bot
	cfg     *config.Config
	gateway *TelegramGateway
	timers  *duel.Supervisor
	manager *duel.Manager

	// Handlers
	duelHandler     *handler.DuelHandler
	rouletteHandler *handler.RouletteHandler
	silenceHandler  *handler.SilenceHandler
	imagesHandler   *handler.ImagesHandler
}

// Dependencies holds what the bot needs beyond its own Telegram plumbing.
type Dependencies struct {
	Config         *config.Config
	CatalogService *service.CatalogService
	RouletteGame   *roulette.Game
}

// New creates a Bot instance, wiring the duel session manager over the
// Telegram gateway.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	gateway := NewTelegramGateway(teleBot)
	timers := duel.NewSupervisor()

	duelCfg := duel.Config{
		ConfirmWindow: deps.Config.Duel.ConfirmWindow,
		Countdown:     deps.Config.Duel.Countdown,
		ShotWindow:    deps.Config.Duel.ShotWindow,
		FoulMute:      deps.Config.Duel.FoulMute,
		LoseMute:      deps.Config.Duel.LoseMute,
	}
	dispatcher := duel.NewDispatcher(gateway, gateway, duelCfg)
	manager := duel.NewManager(dispatcher, timers, lock.NewChatLock(), duelCfg)

	botID := teleBot.Me.ID

	b := &Bot{
		bot:     teleBot,
		cfg:     deps.Config,
		gateway: gateway,
		timers:  timers,
		manager: manager,

		duelHandler:     handler.NewDuelHandler(manager, botID),
		rouletteHandler: handler.NewRouletteHandler(deps.RouletteGame, gateway, deps.Config),
		silenceHandler:  handler.NewSilenceHandler(gateway, timers, deps.Config, botID),
		imagesHandler:   handler.NewImagesHandler(deps.CatalogService, deps.Config),
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RecoveryMiddleware())
}

// registerHandlers registers all command and text handlers.
func (b *Bot) registerHandlers() {
	// Roulette commands
	b.bot.Handle("/roulette", b.rouletteHandler.HandleLoad)
	b.bot.Handle("/fire", b.rouletteHandler.HandleFire)

	// Silence command
	b.bot.Handle("/unmute", b.silenceHandler.HandleUnmute)

	// Image catalog commands
	b.bot.Handle("/save", b.imagesHandler.HandleSave)
	b.bot.Handle("/folders", b.imagesHandler.HandleFolders)
	b.bot.Handle("/aliases", b.imagesHandler.HandleAliases)
	b.bot.Handle("/alias", b.imagesHandler.HandleAddAlias)
	b.bot.Handle("/unalias", b.imagesHandler.HandleDeleteAlias)
	b.bot.Handle("/help", b.imagesHandler.HandleHelp)

	// Plain text: duel triggers first, then image folder lookup
	b.bot.Handle(tele.OnText, b.handleText)
}

// handleText routes a plain text message through the duel trigger
// predicates, falling back to the image folder lookup.
func (b *Bot) handleText(c tele.Context) error {
	handled, err := b.duelHandler.TryHandle(c)
	if err != nil || handled {
		return err
	}

	_, err = b.imagesHandler.TryHandleFolder(c)
	return err
}

// Manager returns the duel session manager.
func (b *Bot) Manager() *duel.Manager {
	return b.manager
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot and cancels every pending duel timer. In-flight
// duels are forfeited, which is equivalent to a mass timeout.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
	b.timers.Close()
}
