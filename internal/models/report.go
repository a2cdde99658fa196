package models

import "time"

// TeacherDailyCount counts one teacher's classes on a report day.
type TeacherDailyCount struct {
	TeacherID   string              `json:"teacherId"`
	TeacherName string              `json:"teacherName"`
	Total       int                 `json:"total"`
	ByStatus    map[ClassStatus]int `json:"byStatus"`
}

// DailyReport groups the classes that fall on one local date of the viewer.
type DailyReport struct {
	Date     string              `json:"date"`
	Timezone string              `json:"timezone"`
	Total    int                 `json:"total"`
	ByStatus map[ClassStatus]int `json:"byStatus"`
	Teachers []TeacherDailyCount `json:"teachers"`
	Classes  []DailyClassView    `json:"classes"`
}

// StudentAttendance summarises a student's classes in a month.
type StudentAttendance struct {
	StudentID      string  `json:"studentId"`
	StudentName    string  `json:"studentName"`
	Month          int     `json:"month"`
	Year           int     `json:"year"`
	Total          int     `json:"total"`
	Taken          int     `json:"taken"`
	Absent         int     `json:"absent"`
	Leave          int     `json:"leave"`
	Other          int     `json:"other"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// DashboardOverview is the landing summary for administrators.
type DashboardOverview struct {
	Date             string              `json:"date"`
	Timezone         string              `json:"timezone"`
	ActiveTeachers   int                 `json:"activeTeachers"`
	ActiveStudents   int                 `json:"activeStudents"`
	ActiveTemplates  int                 `json:"activeTemplates"`
	TodayTotal       int                 `json:"todayTotal"`
	TodayByStatus    map[ClassStatus]int `json:"todayByStatus"`
	UpcomingHolidays []PublicHoliday     `json:"upcomingHolidays"`
	PendingAdvance   int                 `json:"pendingAdvance"`
	Degraded         []string            `json:"degraded,omitempty"`
	GeneratedAt      time.Time           `json:"generatedAt"`
}

// ClassFeedEvent is pushed to live feed listeners whenever daily classes change.
type ClassFeedEvent struct {
	Collection string         `json:"collection"`
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	ByStatus   map[string]int `json:"byStatus"`
	At         time.Time      `json:"at"`
}
