package handlers

// User facing texts
const (
	MsgWelcome       = "👋 سلام! برای ثبت‌نام اسمت رو بعد از دستور بفرست:\n<code>/start اسم شما</code>"
	MsgWelcomeBack   = "👋 خوش برگشتی %s!\n🆔 شناسه تو: <code>%s</code>"
	MsgRegistered    = "✅ ثبت‌نام انجام شد %s!\n🆔 شناسه تو: <code>%s</code>\nاین شناسه رو به دوستات بده تا بتونن بهت درخواست بدن."
	MsgInvalidName   = "❌ اسم معتبر نیست. یک اسم کوتاه (حداکثر ۶۴ حرف) بفرست."
	MsgNotRegistered = "⚠️ اول باید ثبت‌نام کنی: <code>/start اسم شما</code>"
	MsgNameUsage     = "✏️ اسم جدید رو بعد از دستور بفرست:\n<code>/name اسم جدید</code>"
	MsgNameUpdated   = "✅ اسمت به %s تغییر کرد."
	MsgHelp          = "📖 دستورات:\n" +
		"/name اسم - تغییر اسم\n" +
		"/add شناسه - ارسال درخواست دوستی\n" +
		"/accept شناسه - قبول درخواست\n" +
		"/reject شناسه - رد درخواست\n" +
		"/remove شناسه - حذف دوست یا لغو درخواست\n" +
		"/friends - لیست دوستان\n" +
		"/requests - درخواست‌های دریافتی\n" +
		"/sent - درخواست‌های ارسالی"
	MsgInternalError = "❌ خطایی رخ داد، دوباره تلاش کن."

	MsgUsage            = "🔑 شناسه فرد رو هم بفرست. مثال: <code>/%s aB3dE5gH</code>"
	MsgInvalidPublicID  = "❌ شناسه نامعتبر است. شناسه ۸ کاراکتری است."
	MsgPersonNotFound   = "❌ کاربری با این شناسه پیدا نشد."
	MsgSelfRequest      = "😅 نمی‌تونی به خودت درخواست دوستی بدی!"
	MsgRateLimited      = "⏳ درخواست‌های زیادی فرستادی. کمی بعد دوباره امتحان کن."
	MsgRequestSent      = "✅ درخواست دوستی برای %s ارسال شد!"
	MsgRequestReceived  = "👋 %s درخواست دوستی داد!"
	MsgAlreadyConnected = "ℹ️ بین شما و %s قبلاً دوستی یا درخواست وجود دارد."
	MsgNowFriends       = "🎉 تو و %s حالا دوست هستید!"
	MsgRequestAccepted  = "🎉 %s درخواست دوستیت رو قبول کرد!"
	MsgNoPendingRequest = "❌ درخواست در انتظاری از %s نداری."
	MsgRequestRejected  = "🚫 درخواست %s رد شد."
	MsgFriendRemoved    = "🗑 دوستی با %s حذف شد."
	MsgNothingToRemove  = "ℹ️ دوستی یا درخواستی با %s وجود ندارد."

	MsgFriendsHeader  = "👥 دوستان تو:\n"
	MsgNoFriends      = "😔 هنوز دوستی نداری."
	MsgIncomingHeader = "📥 درخواست‌های دریافتی:\n"
	MsgNoIncoming     = "📭 درخواست دریافتی نداری."
	MsgSentHeader     = "📤 درخواست‌های ارسالی:\n"
	MsgNoSent         = "📭 درخواست در انتظاری نفرستادی."
)

// Buttons
const (
	BtnAccept = "✅ قبول"
	BtnReject = "❌ رد"
)
