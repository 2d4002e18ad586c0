/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's unrounded decimal model from the external contract. This is
  the presentation boundary: hours are rounded to two decimals and
  percentages to one decimal here and nowhere earlier.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Workers:
    WorkerDTO, CreateWorkerRequest, ChangeRequest, ChangeRecordDTO,
    OverrideRequest, OverrideDTO, HistoryDTO

  Daily summaries:
    DailySummaryRequest

  Reports:
    ReportRequestDTO, ReportDTO, RowDTO, GroupDTO, SummaryDTO,
    CategorySummaryDTO, TrendDTO, ReportRunDTO

VALIDATION:
  Field parsing happens in the To* methods; domain validation happens in
  the store and engine.

SEE ALSO:
  - handlers.go: Uses these types
  - generic/types.go: RoundHours, RoundPercent
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// WORKERS
// =============================================================================

// WorkerDTO represents a worker in API responses.
type WorkerDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	WorkStatus string `json:"work_status"`
	RegionID   string `json:"region_id"`
	HireDate   string `json:"hire_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

func toWorkerDTO(w attribution.Worker) WorkerDTO {
	return WorkerDTO{
		ID:         w.ID,
		Name:       w.Name,
		Email:      w.Email,
		WorkStatus: string(w.WorkStatus),
		RegionID:   w.RegionID,
		HireDate:   optionalDate(w.HireDate),
		EndDate:    optionalDate(w.EndDate),
	}
}

// CreateWorkerRequest creates or replaces a worker.
type CreateWorkerRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	WorkStatus string `json:"work_status"`
	RegionID   string `json:"region_id"`
	HireDate   string `json:"hire_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

func (req CreateWorkerRequest) ToWorker() (attribution.Worker, error) {
	hire, err := parseOptionalDate("hire_date", req.HireDate)
	if err != nil {
		return attribution.Worker{}, err
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return attribution.Worker{}, err
	}
	return attribution.Worker{
		ID:         req.ID,
		Name:       req.Name,
		Email:      req.Email,
		WorkStatus: attribution.WorkStatus(req.WorkStatus),
		RegionID:   req.RegionID,
		HireDate:   hire,
		EndDate:    end,
	}, nil
}

// ChangeRequest appends an attribute change for the worker in the URL.
type ChangeRequest struct {
	Field         string `json:"field"`
	OldValue      string `json:"old_value,omitempty"`
	NewValue      string `json:"new_value"`
	EffectiveDate string `json:"effective_date"`
	Reason        string `json:"reason,omitempty"`
}

func (req ChangeRequest) ToRecord(workerID string) (attribution.ChangeRecord, error) {
	effective, err := parseDate("effective_date", req.EffectiveDate)
	if err != nil {
		return attribution.ChangeRecord{}, err
	}
	return attribution.ChangeRecord{
		WorkerID:      workerID,
		Field:         attribution.Field(req.Field),
		OldValue:      req.OldValue,
		NewValue:      req.NewValue,
		EffectiveDate: effective,
		Reason:        req.Reason,
	}, nil
}

// ChangeRecordDTO represents a stored change.
type ChangeRecordDTO struct {
	ID            string `json:"id"`
	WorkerID      string `json:"worker_id"`
	Field         string `json:"field"`
	OldValue      string `json:"old_value"`
	NewValue      string `json:"new_value"`
	EffectiveDate string `json:"effective_date"`
	Reason        string `json:"reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toChangeRecordDTO(rec attribution.ChangeRecord) ChangeRecordDTO {
	return ChangeRecordDTO{
		ID:            rec.ID,
		WorkerID:      rec.WorkerID,
		Field:         string(rec.Field),
		OldValue:      rec.OldValue,
		NewValue:      rec.NewValue,
		EffectiveDate: rec.EffectiveDate.String(),
		Reason:        rec.Reason,
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
	}
}

// OverrideRequest sets a worker-specific weekly target.
type OverrideRequest struct {
	ID            string          `json:"id,omitempty"`
	WorkStatus    string          `json:"work_status"`
	WeeklyHours   decimal.Decimal `json:"weekly_hours"`
	EffectiveFrom string          `json:"effective_from"`
	EffectiveTo   string          `json:"effective_to,omitempty"`
}

func (req OverrideRequest) ToOverride(workerID string) (attribution.TargetOverride, error) {
	from, err := parseDate("effective_from", req.EffectiveFrom)
	if err != nil {
		return attribution.TargetOverride{}, err
	}
	to, err := parseOptionalDate("effective_to", req.EffectiveTo)
	if err != nil {
		return attribution.TargetOverride{}, err
	}
	return attribution.TargetOverride{
		ID:            req.ID,
		WorkerID:      workerID,
		WorkStatus:    attribution.WorkStatus(req.WorkStatus),
		WeeklyHours:   req.WeeklyHours,
		EffectiveFrom: from,
		EffectiveTo:   to,
	}, nil
}

// OverrideDTO represents a stored override.
type OverrideDTO struct {
	ID            string  `json:"id"`
	WorkerID      string  `json:"worker_id"`
	WorkStatus    string  `json:"work_status"`
	WeeklyHours   float64 `json:"weekly_hours"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   string  `json:"effective_to,omitempty"`
}

func toOverrideDTO(o attribution.TargetOverride) OverrideDTO {
	return OverrideDTO{
		ID:            o.ID,
		WorkerID:      o.WorkerID,
		WorkStatus:    string(o.WorkStatus),
		WeeklyHours:   generic.RoundHours(o.WeeklyHours),
		EffectiveFrom: o.EffectiveFrom.String(),
		EffectiveTo:   optionalDate(o.EffectiveTo),
	}
}

// HistoryDTO is the resolved value of one attribute across a window.
type HistoryDTO struct {
	WorkerID string            `json:"worker_id"`
	Field    string            `json:"field"`
	Start    string            `json:"start_date"`
	End      string            `json:"end_date"`
	Periods  []HistoryEntryDTO `json:"periods"`
	Gaps     []string          `json:"gaps,omitempty"`
}

type HistoryEntryDTO struct {
	Value string `json:"value"`
	Start string `json:"start_date"`
	End   string `json:"end_date"`
	Days  int    `json:"days"`
}

func NewHistoryDTO(workerID string, field attribution.Field, window generic.Period, result attribution.HistoryResult) HistoryDTO {
	dto := HistoryDTO{
		WorkerID: workerID,
		Field:    string(field),
		Start:    window.Start.String(),
		End:      window.End.String(),
		Periods:  make([]HistoryEntryDTO, len(result.Periods)),
	}
	for i, p := range result.Periods {
		dto.Periods[i] = HistoryEntryDTO{
			Value: p.Value,
			Start: p.Period.Start.String(),
			End:   p.Period.End.String(),
			Days:  p.Days(),
		}
	}
	for _, gap := range result.Gaps {
		dto.Gaps = append(dto.Gaps, gap.Error())
	}
	return dto
}

// =============================================================================
// DAILY SUMMARIES
// =============================================================================

// DailySummaryRequest upserts one worker-day.
type DailySummaryRequest struct {
	WorkerID    string               `json:"worker_id"`
	Date        string               `json:"date"`
	Billable    decimal.Decimal      `json:"billable_hours"`
	NonBillable decimal.Decimal      `json:"non_billable_hours"`
	EntryCount  int                  `json:"entry_count"`
	Categories  []CategoryRequestDTO `json:"categories,omitempty"`
}

type CategoryRequestDTO struct {
	ID    string          `json:"category_id"`
	Name  string          `json:"category_name"`
	Hours decimal.Decimal `json:"hours"`
}

func (req DailySummaryRequest) ToSummary() (attribution.DailySummary, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return attribution.DailySummary{}, err
	}
	ds := attribution.DailySummary{
		WorkerID:    req.WorkerID,
		Date:        date,
		Billable:    req.Billable,
		NonBillable: req.NonBillable,
		EntryCount:  req.EntryCount,
	}
	for _, c := range req.Categories {
		ds.Categories = append(ds.Categories, attribution.CategoryHours{ID: c.ID, Name: c.Name, Hours: c.Hours})
	}
	return ds, nil
}

// =============================================================================
// REPORTS
// =============================================================================

// ReportRequestDTO asks for a report (or a trend) over a window.
type ReportRequestDTO struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Mode      string   `json:"mode"`
	GroupBy   string   `json:"group_by,omitempty"`
	Region    string   `json:"region,omitempty"`
	WorkerIDs []string `json:"worker_ids,omitempty"`
}

func (req ReportRequestDTO) ToRequest() (attribution.ReportRequest, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return attribution.ReportRequest{}, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return attribution.ReportRequest{}, err
	}
	groupBy := attribution.GroupBy(req.GroupBy)
	if groupBy == "" {
		groupBy = attribution.GroupByRegion
	}
	return attribution.ReportRequest{
		Window:       generic.Period{Start: start, End: end},
		Mode:         attribution.Mode(req.Mode),
		GroupBy:      groupBy,
		RegionFilter: req.Region,
		WorkerIDs:    req.WorkerIDs,
	}, nil
}

// ReportDTO is the rounded report.
type ReportDTO struct {
	StartDate     string                      `json:"start_date"`
	EndDate       string                      `json:"end_date"`
	Mode          string                      `json:"mode"`
	GroupBy       string                      `json:"group_by"`
	Summary       SummaryDTO                  `json:"summary"`
	Groups        []GroupDTO                  `json:"groups"`
	Categories    []CategorySummaryDTO        `json:"categories"`
	Failures      []attribution.WorkerFailure `json:"failures,omitempty"`
	Skipped       int                         `json:"skipped"`
	Warnings      []string                    `json:"warnings,omitempty"`
	LeaveDegraded bool                        `json:"leave_degraded"`
}

// GroupDTO is one region (or the overall group).
type GroupDTO struct {
	Key        string               `json:"key"`
	Summary    SummaryDTO           `json:"summary"`
	FullTime   SummaryDTO           `json:"full_time"`
	PartTime   SummaryDTO           `json:"part_time"`
	Categories []CategorySummaryDTO `json:"categories"`
	Rows       []RowDTO             `json:"rows"`
}

// SummaryDTO is a rounded GroupSummary.
type SummaryDTO struct {
	TotalUsers       int     `json:"total_users"`
	TotalBillable    float64 `json:"total_billable_hours"`
	TotalNonBillable float64 `json:"total_non_billable_hours"`
	TotalTarget      float64 `json:"total_target_hours"`
	TotalNADCount    float64 `json:"total_nad_count"`
	TotalNADHours    float64 `json:"total_nad_hours"`
	AvgPerformance   float64 `json:"avg_performance"`
	Exceeded         int     `json:"exceeded"`
	Meet             int     `json:"meet"`
	Below            int     `json:"below"`
}

func toSummaryDTO(s attribution.GroupSummary) SummaryDTO {
	return SummaryDTO{
		TotalUsers:       s.TotalUsers,
		TotalBillable:    generic.RoundHours(s.TotalBillable),
		TotalNonBillable: generic.RoundHours(s.TotalNonBillable),
		TotalTarget:      generic.RoundHours(s.TotalTarget),
		TotalNADCount:    generic.RoundHours(s.TotalNADCount),
		TotalNADHours:    generic.RoundHours(s.TotalNADHours),
		AvgPerformance:   generic.RoundPercent(s.AvgPerformance),
		Exceeded:         s.Breakdown.Exceeded,
		Meet:             s.Breakdown.Meet,
		Below:            s.Breakdown.Below,
	}
}

// RowDTO is one worker sub-period.
type RowDTO struct {
	WorkerID      string             `json:"worker_id"`
	WorkerName    string             `json:"worker_name"`
	Email         string             `json:"email"`
	WorkStatus    string             `json:"work_status"`
	Region        string             `json:"region"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	Days          int                `json:"days"`
	Billable      float64            `json:"billable_hours"`
	NonBillable   float64            `json:"non_billable_hours"`
	Total         float64            `json:"total_hours"`
	EntryCount    int                `json:"entry_count"`
	TargetTotal   float64            `json:"target_hours"`
	TargetPerWeek float64            `json:"target_per_week"`
	PeriodWeeks   float64            `json:"period_weeks"`
	WeeklyTargets []WeeklyTargetDTO  `json:"weekly_targets,omitempty"`
	NADCount      float64            `json:"nad_count"`
	NADHours      float64            `json:"nad_hours"`
	Categories    []CategoryHoursDTO `json:"categories"`
	Performance   float64            `json:"performance"`
	Tier          string             `json:"tier"`
}

type WeeklyTargetDTO struct {
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	WeeklyHours float64 `json:"weekly_hours"`
	Hours       float64 `json:"hours"`
	Source      string  `json:"source"`
	OverrideID  string  `json:"override_id,omitempty"`
}

type CategoryHoursDTO struct {
	ID    string  `json:"category_id"`
	Name  string  `json:"category_name"`
	Hours float64 `json:"hours"`
}

func toRowDTO(r attribution.ReportRow) RowDTO {
	dto := RowDTO{
		WorkerID:      r.WorkerID,
		WorkerName:    r.WorkerName,
		Email:         r.Email,
		WorkStatus:    r.WorkStatus.Label(),
		Region:        r.Region,
		StartDate:     r.Period.Start.String(),
		EndDate:       r.Period.End.String(),
		Days:          r.Days,
		Billable:      generic.RoundHours(r.Billable),
		NonBillable:   generic.RoundHours(r.NonBillable),
		Total:         generic.RoundHours(r.Total),
		EntryCount:    r.EntryCount,
		TargetTotal:   generic.RoundHours(r.TargetTotal),
		TargetPerWeek: generic.RoundHours(r.TargetPerWeek),
		PeriodWeeks:   generic.RoundHours(r.PeriodWeeks),
		NADCount:      generic.RoundHours(r.NADCount),
		NADHours:      generic.RoundHours(r.NADHours),
		Categories:    make([]CategoryHoursDTO, len(r.Categories)),
		Performance:   generic.RoundPercent(r.Performance.Percentage),
		Tier:          string(r.Performance.Tier),
	}
	for _, w := range r.WeeklyTargets {
		dto.WeeklyTargets = append(dto.WeeklyTargets, WeeklyTargetDTO{
			StartDate:   w.Week.Start.String(),
			EndDate:     w.Week.End.String(),
			WeeklyHours: generic.RoundHours(w.Rate.WeeklyHours),
			Hours:       generic.RoundHours(w.Hours),
			Source:      string(w.Rate.Source),
			OverrideID:  w.Rate.OverrideID,
		})
	}
	for i, c := range r.Categories {
		dto.Categories[i] = CategoryHoursDTO{ID: c.ID, Name: c.Name, Hours: generic.RoundHours(c.Hours)}
	}
	return dto
}

// CategorySummaryDTO is one category across a group.
type CategorySummaryDTO struct {
	ID       string  `json:"category_id"`
	Name     string  `json:"category_name"`
	Hours    float64 `json:"hours"`
	Users    int     `json:"users"`
	AvgHours float64 `json:"avg_hours"`
}

func toCategorySummaryDTOs(categories []attribution.CategorySummary) []CategorySummaryDTO {
	dtos := make([]CategorySummaryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = CategorySummaryDTO{
			ID:       c.ID,
			Name:     c.Name,
			Hours:    generic.RoundHours(c.Hours),
			Users:    c.Users,
			AvgHours: generic.RoundHours(c.AvgHours),
		}
	}
	return dtos
}

func NewReportDTO(report *attribution.Report) ReportDTO {
	dto := ReportDTO{
		StartDate:     report.Window.Start.String(),
		EndDate:       report.Window.End.String(),
		Mode:          string(report.Mode),
		GroupBy:       string(report.GroupBy),
		Summary:       toSummaryDTO(report.Summary),
		Groups:        make([]GroupDTO, len(report.Groups)),
		Categories:    toCategorySummaryDTOs(report.Categories),
		Failures:      report.Failures,
		Skipped:       report.Skipped,
		LeaveDegraded: report.LeaveDegraded,
	}
	for i, g := range report.Groups {
		group := GroupDTO{
			Key:        g.Key,
			Summary:    toSummaryDTO(g.Summary),
			FullTime:   toSummaryDTO(g.FullTime),
			PartTime:   toSummaryDTO(g.PartTime),
			Categories: toCategorySummaryDTOs(g.Categories),
			Rows:       make([]RowDTO, len(g.Rows)),
		}
		for j, r := range g.Rows {
			group.Rows[j] = toRowDTO(r)
		}
		dto.Groups[i] = group
	}
	for _, gap := range report.Gaps {
		dto.Warnings = append(dto.Warnings, gap.Error())
	}
	return dto
}

// TrendDTO is one report per bucket of the requested window.
type TrendDTO struct {
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	Mode      string      `json:"mode"`
	Buckets   []ReportDTO `json:"buckets"`
}

func NewTrendDTO(req attribution.ReportRequest, reports []*attribution.Report) TrendDTO {
	dto := TrendDTO{
		StartDate: req.Window.Start.String(),
		EndDate:   req.Window.End.String(),
		Mode:      string(req.Mode),
		Buckets:   make([]ReportDTO, len(reports)),
	}
	for i, report := range reports {
		dto.Buckets[i] = NewReportDTO(report)
	}
	return dto
}

// ReportRunDTO represents a scheduled report run.
type ReportRunDTO struct {
	ID             string  `json:"id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	Mode           string  `json:"mode"`
	GroupBy        string  `json:"group_by"`
	Status         string  `json:"status"`
	StartedAt      string  `json:"started_at"`
	FinishedAt     string  `json:"finished_at,omitempty"`
	Users          int     `json:"users"`
	Rows           int     `json:"rows"`
	Failures       int     `json:"failures"`
	AvgPerformance float64 `json:"avg_performance"`
	LeaveDegraded  bool    `json:"leave_degraded"`
	Error          string  `json:"error,omitempty"`
}

func NewReportRunDTO(r attribution.ReportRun) ReportRunDTO {
	dto := ReportRunDTO{
		ID:             r.ID,
		StartDate:      r.Window.Start.String(),
		EndDate:        r.Window.End.String(),
		Mode:           string(r.Mode),
		GroupBy:        string(r.GroupBy),
		Status:         string(r.Status),
		StartedAt:      r.StartedAt.Format(time.RFC3339),
		Users:          r.Users,
		Rows:           r.Rows,
		Failures:       r.Failures,
		AvgPerformance: generic.RoundPercent(r.AvgPerformance),
		LeaveDegraded:  r.LeaveDegraded,
		Error:          r.Error,
	}
	if r.FinishedAt != nil {
		dto.FinishedAt = r.FinishedAt.Format(time.RFC3339)
	}
	return dto
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseDate(name, value string) (generic.TimePoint, error) {
	if value == "" {
		return generic.TimePoint{}, fmt.Errorf("%w: %s is required", generic.ErrInvalidInput, name)
	}
	tp, err := generic.ParseDate(value)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", generic.ErrInvalidInput, name)
	}
	return tp, nil
}

func parseOptionalDate(name, value string) (*generic.TimePoint, error) {
	if value == "" {
		return nil, nil
	}
	tp, err := parseDate(name, value)
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

func optionalDate(tp *generic.TimePoint) string {
	if tp == nil {
		return ""
	}
	return tp.String()
}
