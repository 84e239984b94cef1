package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"timeblock/internal/domain"
)

var catalog = map[language.Tag]map[domain.Reason]string{
	language.English: {
		domain.ReasonEmptyTitle:      "Event title is required (max 100 characters)",
		domain.ReasonTitleTooLong:    "Event title is required (max 100 characters)",
		domain.ReasonInvalidDate:     "Invalid date format",
		domain.ReasonPastDate:        "Cannot create events in the past",
		domain.ReasonInvalidTime:     "Invalid time format (use HH:MM)",
		domain.ReasonInvalidDuration: "Duration must be at least 5 minutes and a multiple of 5",
		domain.ReasonEventOverlap:    "Event overlaps with an existing event",
		domain.ReasonSlotUnavailable: "Time slot is unavailable (external booking)",
	},
	language.Russian: {
		domain.ReasonEmptyTitle:      "Требуется название события (макс. 100 символов)",
		domain.ReasonTitleTooLong:    "Требуется название события (макс. 100 символов)",
		domain.ReasonInvalidDate:     "Неверный формат даты",
		domain.ReasonPastDate:        "Невозможно создать события в прошлом",
		domain.ReasonInvalidTime:     "Неверный формат времени (используйте ЧЧ:ММ)",
		domain.ReasonInvalidDuration: "Продолжительность должна быть не менее 5 минут и кратна 5",
		domain.ReasonEventOverlap:    "Событие пересекается с существующим событием",
		domain.ReasonSlotUnavailable: "Временной слот недоступен (внешнее бронирование)",
	},
	language.Chinese: {
		domain.ReasonEmptyTitle:      "事件标题为必填项（最多100个字符）",
		domain.ReasonTitleTooLong:    "事件标题为必填项（最多100个字符）",
		domain.ReasonInvalidDate:     "无效的日期格式",
		domain.ReasonPastDate:        "无法在过去创建事件",
		domain.ReasonInvalidTime:     "无效的时间格式（使用 HH:MM）",
		domain.ReasonInvalidDuration: "持续时间必须至少为5分钟且为5的倍数",
		domain.ReasonEventOverlap:    "事件与现有事件重叠",
		domain.ReasonSlotUnavailable: "时间段不可用（外部预订）",
	},
}

func init() {
	for tag, msgs := range catalog {
		for reason, msg := range msgs {
			if err := message.SetString(tag, reasonKey(reason), msg); err != nil {
				panic(err)
			}
		}
	}
}
