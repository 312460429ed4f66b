package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

type App interface {
	CreateMeeting(ctx context.Context, form models.MeetingRequest, organizer models.Organizer, channelID string) (models.Meeting, error)
	CancelMeeting(ctx context.Context, meetingID string) (models.Meeting, error)
	ListMeetings(ctx context.Context) []models.Meeting
}

type Telegram struct {
	log *logrus.Entry
	bot *tele.Bot
	app App
}

// Notifier posts meeting summaries to the configured channel. Failures are
// reported to the caller, which logs and moves on.
type Notifier struct {
	log  *logrus.Entry
	bot  *tele.Bot
	chat tele.ChatID
}

func NewBot(token string) (*tele.Bot, error) {
	config := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(config)
	if err != nil {
		return nil, fmt.Errorf("new bot failed: %w", err)
	}
	return b, nil
}

func New(log *logrus.Logger, bot *tele.Bot, app App) *Telegram {
	t := Telegram{
		log: log.WithField("component", "telegram"),
		bot: bot,
		app: app,
	}
	t.initHandlers()
	return &t
}

func NewNotifier(log *logrus.Logger, bot *tele.Bot, chatID int64) *Notifier {
	return &Notifier{
		log:  log.WithField("component", "notifier"),
		bot:  bot,
		chat: tele.ChatID(chatID),
	}
}

func (n *Notifier) Notify(_ context.Context, message string) error {
	if _, err := n.bot.Send(n.chat, message); err != nil {
		return fmt.Errorf("tg send message failed: %w", err)
	}
	return nil
}

func (t *Telegram) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		t.bot.Stop()
	}()
	t.log.Infof("Starting telegram bot as %v", t.bot.Me.Username)
	t.bot.Start()
}
