package entities

type CountType string

const (
	CountWork     CountType = "work"
	CountPage     CountType = "page"
	CountWorkView CountType = "workview"
)

func (c CountType) Valid() bool {
	switch c {
	case CountWork, CountPage, CountWorkView:
		return true
	}
	return false
}

type StatisticEntry struct {
	ID            string `json:"id" db:"uid"`
	UserID        string `json:"user_id" db:"fe_user"`
	DocumentID    string `json:"document_id" db:"document"`
	DownloadWork  int    `json:"download_work" db:"download_work"`
	DownloadPages int    `json:"download_pages" db:"download_pages"`
	WorkViews     int    `json:"work_views" db:"work_views"`
	CreatedAt     int64  `json:"created_at" db:"crdate"`
	UpdatedAt     int64  `json:"updated_at" db:"tstamp"`
}

// Count applies one event. Work downloads and views are flags per window,
// page downloads accumulate.
func (e *StatisticEntry) Count(t CountType) {
	switch t {
	case CountWork:
		e.DownloadWork = 1
	case CountPage:
		e.DownloadPages++
	case CountWorkView:
		e.WorkViews = 1
	}
}

// StatisticFilter bounds are inclusive epoch seconds; zero means unbounded.
type StatisticFilter struct {
	UserID string
	From   int64
	To     int64
}
