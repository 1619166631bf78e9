package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	TelegramUserKey = "telegram_user"
	UserIDKey       = "user_id"

	// InitDataMaxAge is how long signed WebApp init data stays valid.
	InitDataMaxAge = time.Hour
)

type TelegramInitData struct {
	QueryID      string `json:"query_id"`
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
	StartParam   string `json:"start_param"`
	AuthDate     int64  `json:"auth_date"`
	Hash         string `json:"hash"`
}

type telegramWebAppUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
}

// TelegramAuth authenticates requests signed by the Telegram WebApp
func TelegramAuth(botToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Copied: parsed values are used after fiber reuses the buffer.
		initData := utils.CopyString(c.Get("X-Telegram-Init-Data"))
		if initData == "" {
			initData = utils.CopyString(strings.TrimPrefix(c.Get("Authorization"), "tma "))
		}

		if initData == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing telegram init data",
			})
		}

		userData, err := ValidateTelegramInitData(initData, botToken, time.Now())
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid telegram init data: " + err.Error(),
			})
		}
		if userData.UserID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "init data has no user",
			})
		}

		c.Locals(TelegramUserKey, userData)
		c.Locals(UserIDKey, userData.UserID)

		return c.Next()
	}
}

func ValidateTelegramInitData(initData, botToken string, now time.Time) (*TelegramInitData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "missing hash")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid auth_date")
	}
	if now.Unix()-authDate > int64(InitDataMaxAge.Seconds()) {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "auth_date expired")
	}

	values.Del("hash")
	if !hmac.Equal([]byte(SignInitData(values, botToken)), []byte(hash)) {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid hash")
	}

	userData := &TelegramInitData{
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
		AuthDate:   authDate,
		Hash:       hash,
	}

	if raw := values.Get("user"); raw != "" {
		var user telegramWebAppUser
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user payload")
		}
		userData.UserID = user.ID
		userData.Username = user.Username
		userData.FirstName = user.FirstName
		userData.LastName = user.LastName
		userData.LanguageCode = user.LanguageCode
	}

	return userData, nil
}

// SignInitData computes the WebApp hash of values (without the hash field).
func SignInitData(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+values.Get(key))
	}

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

func GetUserID(c *fiber.Ctx) int64 {
	userID, ok := c.Locals(UserIDKey).(int64)
	if !ok {
		return 0
	}
	return userID
}

func GetTelegramUser(c *fiber.Ctx) *TelegramInitData {
	userData, ok := c.Locals(TelegramUserKey).(*TelegramInitData)
	if !ok {
		return nil
	}
	return userData
}
