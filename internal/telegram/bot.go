package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/rsravisharma/swap-web-sub002/internal/config"
	"github.com/rsravisharma/swap-web-sub002/internal/model"
	"github.com/rsravisharma/swap-web-sub002/internal/service"
)

const recentOffersLimit = 5

type Bot struct {
	bot         *tele.Bot
	cfg         *config.Config
	userSvc     *service.UserService
	coinSvc     *service.CoinService
	offerSvc    *service.OfferService
	referralSvc *service.ReferralService
}

func NewBot(
	cfg *config.Config,
	userSvc *service.UserService,
	coinSvc *service.CoinService,
	offerSvc *service.OfferService,
	referralSvc *service.ReferralService,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Telegram.BotToken,
		Poller: &tele.LongPoller{Timeout: 60 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:         bot,
		cfg:         cfg,
		userSvc:     userSvc,
		coinSvc:     coinSvc,
		offerSvc:    offerSvc,
		referralSvc: referralSvc,
	}

	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/balance", b.handleBalance)
	b.bot.Handle("/offers", b.handleOffers)
	b.bot.Handle("/help", b.handleHelp)
}

func (b *Bot) StartPolling(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.bot.Start()
}

func (b *Bot) GetBotUsername() string {
	return b.bot.Me.Username
}

func (b *Bot) handleStart(c tele.Context) error {
	sender := c.Sender()
	ctx := context.Background()

	user, isNew, err := b.userSvc.GetOrCreateUser(ctx, telegramUser(sender))
	if err != nil {
		return err
	}

	referred := false
	if code := c.Message().Payload; isNew && code != "" {
		if _, err := b.referralSvc.ApplyReferralCode(ctx, user.ID, code); err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to apply start referral code")
		} else {
			referred = true
		}
	}

	text := fmt.Sprintf(`Hi, %s! 👋

<b>Swap</b> is a marketplace for students: list what you no longer need, make offers and haggle until you agree on a price.

Open the app below to browse items and manage your offers.`, html.EscapeString(sender.FirstName))

	if referred {
		text += "\n\n🎁 A friend invited you. They get a coin bonus for bringing you in."
	}

	keyboard := &tele.ReplyMarkup{}
	keyboard.Inline(
		keyboard.Row(
			keyboard.WebApp("📱 Open marketplace", &tele.WebApp{URL: b.cfg.Telegram.WebAppURL}),
		),
	)

	return c.Send(text, keyboard, tele.ModeHTML)
}

func (b *Bot) handleBalance(c tele.Context) error {
	balance, err := b.coinSvc.Balance(context.Background(), c.Sender().ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Send("Send /start first to create your account.")
		}
		return err
	}

	return c.Send(fmt.Sprintf("🪙 Your balance: <b>%d</b> coins", balance), tele.ModeHTML)
}

func (b *Bot) handleOffers(c tele.Context) error {
	userID := c.Sender().ID
	offers, err := b.offerSvc.ListOffers(context.Background(), userID, recentOffersLimit, 0)
	if err != nil {
		return err
	}

	return c.Send(offersSummary(userID, offers), tele.ModeHTML)
}

func (b *Bot) handleHelp(c tele.Context) error {
	text := `<b>Commands</b>

/start — register and open the marketplace
/balance — show your coin balance
/offers — your latest offers
/help — this message

Offers, counter-offers and listings are managed in the app.`

	keyboard := &tele.ReplyMarkup{}
	keyboard.Inline(
		keyboard.Row(
			keyboard.WebApp("📱 Open marketplace", &tele.WebApp{URL: b.cfg.Telegram.WebAppURL}),
		),
	)

	return c.Send(text, keyboard, tele.ModeHTML)
}

// NotifyOffer tells userID about a negotiation event
func (b *Bot) NotifyOffer(ctx context.Context, userID int64, event service.OfferEvent, offer *model.Offer) error {
	keyboard := &tele.ReplyMarkup{}
	keyboard.Inline(
		keyboard.Row(
			keyboard.WebApp("📱 Open offer", &tele.WebApp{URL: b.offerURL(offer)}),
		),
	)

	_, err := b.bot.Send(&tele.User{ID: userID}, offerNotification(event, offer), keyboard, tele.ModeHTML)
	return err
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	_, err := b.bot.Send(&tele.User{ID: chatID}, text, tele.ModeHTML)
	return err
}

func (b *Bot) offerURL(offer *model.Offer) string {
	return strings.TrimRight(b.cfg.Telegram.WebAppURL, "/") + "/offers/" + offer.ID.String()
}

func offerNotification(event service.OfferEvent, offer *model.Offer) string {
	amount := offer.Amount.StringFixed(2)

	var text string
	switch event {
	case service.OfferEventCreated:
		text = fmt.Sprintf("💬 <b>New offer</b>\n\nSomeone offered %s for your item.", amount)
	case service.OfferEventCountered:
		text = fmt.Sprintf("🔁 <b>Counter-offer</b>\n\nYou received a counter-offer of %s.", amount)
	case service.OfferEventAccepted:
		text = fmt.Sprintf("✅ <b>Offer accepted</b>\n\nYour offer of %s was accepted.", amount)
	case service.OfferEventRejected:
		text = fmt.Sprintf("❌ <b>Offer rejected</b>\n\nYour offer of %s was rejected.", amount)
		if offer.RejectionReason != nil && *offer.RejectionReason != "" {
			text += "\nReason: " + html.EscapeString(*offer.RejectionReason)
		}
	case service.OfferEventCancelled:
		text = fmt.Sprintf("🚫 <b>Offer withdrawn</b>\n\nThe offer of %s was cancelled.", amount)
		if offer.CancellationReason != nil && *offer.CancellationReason != "" {
			text += "\nReason: " + html.EscapeString(*offer.CancellationReason)
		}
	default:
		text = fmt.Sprintf("Offer of %s was updated.", amount)
	}

	if offer.Message != "" && (event == service.OfferEventCreated || event == service.OfferEventCountered) {
		text += "\n\n“" + html.EscapeString(offer.Message) + "”"
	}
	return text
}

func offersSummary(userID int64, offers []model.Offer) string {
	if len(offers) == 0 {
		return "You have no offers yet."
	}

	var sb strings.Builder
	sb.WriteString("<b>Your latest offers</b>\n")
	for _, o := range offers {
		direction := "→ sent"
		if o.ReceiverID == userID {
			direction = "← received"
		}
		fmt.Fprintf(&sb, "\n%s %s · %s", direction, o.Amount.StringFixed(2), o.Status)
	}
	return sb.String()
}

func telegramUser(u *tele.User) service.TelegramUser {
	return service.TelegramUser{
		ID:           u.ID,
		Username:     optional(u.Username),
		FirstName:    optional(u.FirstName),
		LastName:     optional(u.LastName),
		LanguageCode: optional(u.LanguageCode),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
