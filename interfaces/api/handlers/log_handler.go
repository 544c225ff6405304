package handlers

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"eventphoto-api/pkg/logger"
	"eventphoto-api/pkg/utils"
)

// LogHandler exposes today's structured log entries. Access is gated by
// the admin token middleware.
type LogHandler struct{}

func NewLogHandler() *LogHandler {
	return &LogHandler{}
}

// GetLogs returns log entries
// GET /api/v1/admin/logs?lines=&level=&category=&search=
func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	opts := logger.ReadLogsOptions{
		Lines:    c.QueryInt("lines", 100),
		Level:    logger.Level(c.Query("level")),
		Category: logger.Category(c.Query("category")),
		Search:   c.Query("search"),
	}

	entries, err := logger.ReadLogs(opts)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read logs", err)
	}
	if entries == nil {
		entries = []logger.LogEntry{}
	}

	return utils.SuccessResponse(c, "Logs retrieved", fiber.Map{
		"entries": entries,
		"count":   len(entries),
		"filters": fiber.Map{
			"lines":    opts.Lines,
			"level":    opts.Level,
			"category": opts.Category,
			"search":   opts.Search,
		},
	})
}

// GET /api/v1/admin/logs/files
func (h *LogHandler) GetLogFiles(c *fiber.Ctx) error {
	files, err := logger.ListLogFiles()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list log files", err)
	}

	return utils.SuccessResponse(c, "Log files retrieved", fiber.Map{
		"files":  files,
		"logDir": logger.GetLogDir(),
	})
}

// GetLogStats counts today's entries by level and category
// GET /api/v1/admin/logs/stats
func (h *LogHandler) GetLogStats(c *fiber.Ctx) error {
	allLogs, _ := logger.ReadLogs(logger.ReadLogsOptions{Lines: 1000})

	levelCounts := map[string]int{
		"DEBUG": 0,
		"INFO":  0,
		"WARN":  0,
		"ERROR": 0,
	}
	categoryCounts := map[string]int{}

	for _, entry := range allLogs {
		levelCounts[string(entry.Level)]++
		categoryCounts[string(entry.Category)]++
	}

	var totalSize int64
	files, _ := logger.ListLogFiles()
	logDir := logger.GetLogDir()
	for _, f := range files {
		if info, err := os.Stat(filepath.Join(logDir, f)); err == nil {
			totalSize += info.Size()
		}
	}

	return utils.SuccessResponse(c, "Log stats retrieved", fiber.Map{
		"total_entries":    len(allLogs),
		"by_level":         levelCounts,
		"by_category":      categoryCounts,
		"total_files":      len(files),
		"total_size_bytes": totalSize,
	})
}
