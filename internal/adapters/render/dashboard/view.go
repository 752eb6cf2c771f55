package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/warehouse-showcase/internal/application"
	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now        time.Time
	StaleAfter time.Duration
}

func renderView(snapshot application.Snapshot, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Warehouse Retrieval"),
		robotLine(snapshot, s),
		stockLine(snapshot, s),
	}
	if line := syncLine(snapshot.LastSync, opts, s); line != "" {
		lines = append(lines, line)
	}

	lines = append(lines,
		s.section.Render(renderStations(snapshot.Stations, s)),
		s.section.Render(renderQueue(snapshot.Queue, opts, s)),
		s.section.Render(renderOperations(snapshot.Operations, s)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func robotLine(snapshot application.Snapshot, s styles) string {
	status := snapshot.Robot
	if status == "" {
		status = domain.RobotIdle
	}

	style := s.robotBusy
	if status == domain.RobotIdle {
		style = s.robotIdle
	}

	line := s.header.Render("robot: ") + style.Render(string(status))
	if snapshot.InFlight > 0 {
		line += s.faint.Render(fmt.Sprintf(" (%d in flight)", snapshot.InFlight))
	}
	return line
}

func stockLine(snapshot application.Snapshot, s styles) string {
	percent := 0.0
	if snapshot.TotalParts > 0 {
		percent = float64(snapshot.AvailableParts) / float64(snapshot.TotalParts) * 100
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.header.Render("storage:"),
		" ",
		renderProgressBar(percent, 24, s),
		" ",
		s.detail.Render(fmt.Sprintf("%d/%d available", snapshot.AvailableParts, snapshot.TotalParts)),
	)
}

func syncLine(lastSync time.Time, opts RenderOptions, s styles) string {
	if lastSync.IsZero() {
		return ""
	}

	line := s.header.Render("last sync: " + formatAge(lastSync, opts.Now))
	if !opts.Now.IsZero() && opts.StaleAfter > 0 && opts.Now.Sub(lastSync) > opts.StaleAfter {
		line += " " + s.warning.Render("[stale]")
	}
	return line
}

func renderStations(stations []domain.Station, s styles) string {
	occupied := 0
	for _, station := range stations {
		if station.Occupied {
			occupied++
		}
	}

	lines := []string{s.heading.Render(fmt.Sprintf("Stations (%d/%d occupied)", occupied, len(stations)))}
	if len(stations) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("No stations configured."))...)
	}

	for _, station := range stations {
		lines = append(lines, stationLine(station, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func stationLine(station domain.Station, s styles) string {
	name := fmt.Sprintf("  %-10s ", station.DisplayName())
	if !station.Occupied || station.Part == nil {
		return s.detail.Render(name) + s.free.Render("free")
	}

	return s.detail.Render(name) + s.occupied.Render(station.Part.DisplayName())
}

func renderQueue(queue []domain.QueuedPart, opts RenderOptions, s styles) string {
	lines := []string{s.heading.Render(fmt.Sprintf("Queue (%d)", len(queue)))}
	if len(queue) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("Queue is empty."))...)
	}

	for i, entry := range queue {
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			s.faint.Render(fmt.Sprintf("%d.", i+1)),
			s.detail.Render(entry.Part.DisplayName()),
			s.faint.Render("queued "+formatAge(entry.EnqueuedAt, opts.Now)),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderOperations(operations []domain.RobotOperation, s styles) string {
	lines := []string{s.heading.Render("Recent operations")}
	if len(operations) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("No operations yet."))...)
	}

	for _, op := range operations {
		lines = append(lines, operationLine(op, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func operationLine(op domain.RobotOperation, s styles) string {
	line := fmt.Sprintf("  %s %-8s %s -> %s ",
		s.faint.Render(string(op.ID)),
		op.Type,
		op.Part.DisplayName(),
		op.StationName,
	)

	status := statusStyle(op.Status, s).Render(string(op.Status))
	if op.Status == domain.OperationError && op.Error != "" {
		status += s.faint.Render(": " + op.Error)
	}
	return s.detail.Render(line) + status
}

func statusStyle(status domain.OperationStatus, s styles) lipgloss.Style {
	switch status {
	case domain.OperationCompleted:
		return s.completed
	case domain.OperationError:
		return s.failed
	default:
		return s.pending
	}
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatAge(at, now time.Time) string {
	if now.IsZero() {
		return at.Format("15:04:05")
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Second:
		return "just now"
	case elapsed < time.Minute:
		return fmt.Sprintf("%ds ago", int(elapsed.Seconds()))
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	default:
		return at.Format("15:04 on 02 Jan")
	}
}
