package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCanceled  = "canceled"
	StatusCompleted = "completed"
)

const (
	BookingTypeRegular = "regular"
	BookingTypeHourly  = "hourly"
)

const (
	// DateLayout is the wire format of calendar dates.
	DateLayout = "2006-01-02"

	// DefaultCalendarCacheTTL время жизни календаря комнаты в кэше (секунды)
	DefaultCalendarCacheTTL = 60

	// DefaultExtensionBufferMinutes запас на уборку при продлении почасовой брони
	DefaultExtensionBufferMinutes = 60

	// DefaultAfternoonCutoff час, начиная с которого почасовая бронь блокирует дневную
	DefaultAfternoonCutoff = "12:00"

	// MaxReportDays максимальная длина периода для отчета
	MaxReportDays = 90

	// RateLimitRPS запросов в секунду на клиента по умолчанию
	RateLimitRPS = 20

	// RateLimitBurst размер всплеска по умолчанию
	RateLimitBurst = 40
)

// DefaultDurationOptions are the hourly booking lengths offered to guests.
var DefaultDurationOptions = []int{1, 2, 3, 4}
