package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts
const (
	welcomeText = "👋 Hi! I deliver Yonote comment notifications.\n\n" +
		"I will notify you about comment events:\n" +
		"• a comment was created\n" +
		"• a comment was edited\n" +
		"• a comment was deleted\n" +
		"• a comment's status changed\n\n" +
		"Notifications cover pages where you are the author or a collaborator."

	connectedGreeting = "👋 Hi! Your Yonote workspace is already connected.\n\n" +
		"You will get notifications about comments on pages where you are " +
		"the author or a collaborator."

	connectInstructions = "🔑 To connect your Yonote workspace:\n\n" +
		"1. Open the settings page: https://app.yonote.ru/settings\n" +
		"2. Find the 'API tokens' section\n" +
		"3. Create a new token or copy an existing one\n" +
		"4. Send the token as a reply message\n\n" +
		"⚠️ The token will be removed from the chat for your safety."

	connectedText = "✅ Connected!\n\n" +
		"You will now receive Yonote comment notifications."

	invalidTokenText = "❌ Invalid token. Please check it and try again."

	workspaceDisconnectedText = "🔄 The current workspace is disconnected.\n\n" +
		"Connect a new one:"

	muteMenuText  = "🔕 Mute notifications for how long?"
	settingsTitle = "⚙️ Bot settings:"
	mainMenuText  = "🏠 Main menu:"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", "settings"),
		),
	)
}

func connectKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 Connect workspace", "connect"),
		),
	)
}

func settingsKeyboard(enabled bool) tgbotapi.InlineKeyboardMarkup {
	toggle := tgbotapi.NewInlineKeyboardButtonData("🔕 Mute notifications", "disable_notifications")
	if !enabled {
		toggle = tgbotapi.NewInlineKeyboardButtonData("🔔 Unmute notifications", "enable_notifications")
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(toggle),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Change workspace", "change_workspace"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "back_to_main"),
		),
	)
}

func mutePresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1 hour", "disable_1h"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("4 hours", "disable_4h"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("24 hours", "disable_24h"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "settings"),
		),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "back_to_main"),
		),
	)
}
