package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/wotclan/tanktrivia/internal/report"
	"github.com/wotclan/tanktrivia/internal/trivia"
)

const answerCustomIDPrefix = "trivia:answer:"

// TriviaRunner is the slice of the trivia service the bot drives.
type TriviaRunner interface {
	Play(ctx context.Context, playerName string, handle trivia.Handle) error
}

// Reporter is the slice of the report builder the bot renders.
type Reporter interface {
	Scoreboard(ctx context.Context, month time.Time) ([]report.ScoreboardRow, error)
	MonthlyStatistics(ctx context.Context, playerName string, month time.Time) (*report.MonthlyStats, error)
	YesterdayResults(ctx context.Context) (*report.YesterdayReport, error)
}

// Bot is the thin Discord adapter: slash commands in, trivia calls out. It
// also implements trivia.Messenger, so the engine never sees discordgo.
type Bot struct {
	session *discordgo.Session
	guildID string
	router  *Router
	game    TriviaRunner
	reports Reporter
	logger  zerolog.Logger
}

var _ trivia.Messenger = (*Bot)(nil)

func NewBot(token, guildID string, game TriviaRunner, reports Reporter, logger zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	bot := &Bot{
		session: session,
		guildID: guildID,
		router:  NewRouter(logger),
		game:    game,
		reports: reports,
		logger:  logger.With().Str("component", "discord").Logger(),
	}
	session.AddHandler(bot.handleInteraction)
	return bot, nil
}

// SetGame injects the trivia service after construction; the bot and the
// service reference each other (bot is also the Messenger).
func (b *Bot) SetGame(game TriviaRunner) {
	b.game = game
}

// Open connects the gateway and registers the slash commands.
func (b *Bot) Open(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}

	commands := []*discordgo.ApplicationCommand{
		{Name: "play", Description: "Answer today's tank trivia question"},
		{Name: "scoreboard", Description: "Show this month's trivia scoreboard"},
		{Name: "stats", Description: "Show your trivia stats for this month"},
		{Name: "yesterday", Description: "Show yesterday's trivia results"},
	}
	for _, cmd := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.guildID, cmd); err != nil {
			return fmt.Errorf("register command %s: %w", cmd.Name, err)
		}
	}
	b.logger.Info().Int("commands", len(commands)).Msg("discord gateway connected")
	return nil
}

// Close shuts the gateway connection.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, i)
	}
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	name := interactionUser(i)
	switch i.ApplicationCommandData().Name {
	case "play":
		b.handlePlay(ctx, i, name)
	case "scoreboard":
		rows, err := b.reports.Scoreboard(ctx, time.Now().UTC())
		if err != nil {
			b.logger.Error().Err(err).Msg("scoreboard failed")
			b.respondEphemeral(i.Interaction, "Couldn't build the scoreboard, try again later.")
			return
		}
		b.respondEphemeral(i.Interaction, renderScoreboard(rows, time.Now().UTC()))
	case "stats":
		stats, err := b.reports.MonthlyStatistics(ctx, name, time.Now().UTC())
		if err != nil {
			b.logger.Error().Err(err).Msg("stats failed")
			b.respondEphemeral(i.Interaction, "Couldn't load your stats, try again later.")
			return
		}
		b.respondEphemeral(i.Interaction, renderMonthlyStats(stats))
	case "yesterday":
		rep, err := b.reports.YesterdayResults(ctx)
		if err != nil {
			b.logger.Error().Err(err).Msg("yesterday results failed")
			b.respondEphemeral(i.Interaction, "Couldn't load yesterday's results, try again later.")
			return
		}
		b.respondEphemeral(i.Interaction, renderYesterday(rep))
	}
}

func (b *Bot) handlePlay(ctx context.Context, i *discordgo.InteractionCreate, name string) {
	err := b.game.Play(ctx, name, i.Interaction)
	switch {
	case err == nil:
		// The question prompt was sent through SendQuestion.
	case errors.Is(err, trivia.ErrAlreadyPlaying):
		b.logger.Debug().Str("player", name).Msg("already playing")
		b.respondEphemeral(i.Interaction, "You already have a question open — answer it first!")
	case errors.Is(err, trivia.ErrDailyLimitReached):
		b.logger.Debug().Str("player", name).Msg("daily limit reached")
		b.respondEphemeral(i.Interaction, "You've played all of today's questions. Come back tomorrow!")
	case errors.Is(err, trivia.ErrDataUnavailable):
		b.logger.Debug().Str("player", name).Msg("questions not ready")
		b.respondEphemeral(i.Interaction, "Today's questions aren't ready yet, try again in a minute.")
	case errors.Is(err, trivia.ErrDisabled):
		b.respondEphemeral(i.Interaction, "Trivia is taking a break right now.")
	default:
		b.logger.Error().Err(err).Str("player", name).Msg("play failed")
		b.respondEphemeral(i.Interaction, "Something went wrong, try again later.")
	}
}

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	if !strings.HasPrefix(customID, answerCustomIDPrefix) {
		return
	}
	tankID, err := strconv.Atoi(strings.TrimPrefix(customID, answerCustomIDPrefix))
	if err != nil {
		b.logger.Warn().Str("custom_id", customID).Msg("malformed answer button")
		return
	}

	click := trivia.Click{TankID: tankID, Handle: i.Interaction}
	if !b.router.Dispatch(i.Message.ID, click) {
		b.respondEphemeral(i.Interaction, "This question is already closed.")
	}
	// Accepted clicks are acknowledged by the collector via ClickAck.
}

// SendQuestion implements trivia.Messenger: it replies to the /play
// interaction with the candidate buttons and opens a click stream for the
// resulting message.
func (b *Bot) SendQuestion(ctx context.Context, handle trivia.Handle, view trivia.QuestionView) (<-chan trivia.Click, func(), error) {
	interaction, ok := handle.(*discordgo.Interaction)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected handle type %T", handle)
	}

	buttons := make([]discordgo.MessageComponent, 0, len(view.Pool))
	for _, v := range view.Pool {
		buttons = append(buttons, discordgo.Button{
			Label:    v.Name,
			Style:    discordgo.PrimaryButton,
			CustomID: answerCustomIDPrefix + strconv.Itoa(v.ID),
		})
	}

	err := b.session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: renderQuestion(view),
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: buttons},
			},
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("send question: %w", err)
	}

	msg, err := b.session.InteractionResponse(interaction)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve question message: %w", err)
	}

	clicks, release := b.router.Register(msg.ID)
	return clicks, release, nil
}

// ClickAck implements trivia.Messenger.
func (b *Bot) ClickAck(ctx context.Context, click trivia.Click, ack trivia.AckKind) {
	interaction, ok := click.Handle.(*discordgo.Interaction)
	if !ok {
		return
	}
	b.respondEphemeral(interaction, renderAck(ack))
}

// SendResult implements trivia.Messenger. The original interaction token is
// still valid for follow-ups when the window closes.
func (b *Bot) SendResult(ctx context.Context, handle trivia.Handle, view trivia.ResultView) error {
	interaction, ok := handle.(*discordgo.Interaction)
	if !ok {
		return fmt.Errorf("unexpected handle type %T", handle)
	}
	_, err := b.session.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{
		Content: renderResult(view),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		return fmt.Errorf("send result: %w", err)
	}
	return nil
}

// Notify implements trivia.Messenger.
func (b *Bot) Notify(ctx context.Context, handle trivia.Handle, text string) {
	interaction, ok := handle.(*discordgo.Interaction)
	if !ok {
		return
	}
	if _, err := b.session.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		b.logger.Warn().Err(err).Msg("notify failed")
	}
}

func (b *Bot) respondEphemeral(interaction *discordgo.Interaction, content string) {
	err := b.session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn().Err(err).Msg("interaction respond failed")
	}
}

func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}
