package models

import (
	"time"
)

// ClickEvent — одно разрешение короткой ссылки. Запись неизменяемая:
// создаётся ровно один раз при редиректе и никогда не обновляется.
type ClickEvent struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"link_id"`
	ClickedAt time.Time `json:"clicked_at"`
}

// DailyClicks — количество кликов за календарный день
type DailyClicks struct {
	ClickDate string `json:"clickDate"`
	Count     int64  `json:"count"`
}
