// Package api exposes the conversion pipeline over HTTP for callers that
// would rather upload a statement than run the CLI.
package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/voucher-importer/internal/dedup"
	"github.com/insightdelivered/voucher-importer/internal/extractor"
	"github.com/insightdelivered/voucher-importer/internal/models"
	"github.com/insightdelivered/voucher-importer/internal/rules"
	"github.com/insightdelivered/voucher-importer/internal/voucher"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// ConvertResponse is the JSON body returned by POST /api/convert.
type ConvertResponse struct {
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`
	Vouchers     []models.Voucher     `json:"vouchers"`
	Duplicates   []models.Voucher     `json:"duplicates"`
	Unclassified []models.Transaction `json:"unclassified"`
	Transactions int                  `json:"transactions"`
	TablesFound  int                  `json:"tablesFound"`
	UsedFallback bool                 `json:"usedFallback"`
	Version      string               `json:"version"`
}

// Handler carries the server-side defaults for conversion requests.
type Handler struct {
	BankLedger string
}

// New builds the Fiber app with the conversion routes registered.
func New(defaultBankLedger string) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             32 << 20,
		DisableStartupMessage: true,
	})

	h := &Handler{BankLedger: defaultBankLedger}
	app.Get("/api/health", h.Health)
	app.Post("/api/convert", h.Convert)

	return app
}

// Health reports liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// Convert accepts a multipart form with a "statement" PDF, a "rules" JSON
// file, an optional "ledger_export" dedup source, and an optional
// "bank_ledger" value, and returns the full partition.
func (h *Handler) Convert(c *fiber.Ctx) error {
	statementFile, err := c.FormFile("statement")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No statement uploaded. Use form field 'statement'.")
	}
	if !strings.HasSuffix(strings.ToLower(statementFile.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Only PDF statements are supported.")
	}

	rulesFile, err := c.FormFile("rules")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No rule file uploaded. Use form field 'rules'.")
	}
	rulesData, err := readUpload(rulesFile)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Failed to read rule file: %v", err))
	}
	ruleEngine, err := rules.Parse(rulesData)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Invalid rule file: %v", err))
	}

	var existing dedup.Set
	if exportFile, err := c.FormFile("ledger_export"); err == nil {
		exportData, err := readUpload(exportFile)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Failed to read ledger export: %v", err))
		}
		existing, err = dedup.ParseExport(exportData)
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Invalid ledger export: %v", err))
		}
	}

	bankLedger := c.FormValue("bank_ledger", h.BankLedger)
	if bankLedger == "" {
		return writeError(c, fiber.StatusBadRequest, "No bank ledger configured. Pass form field 'bank_ledger'.")
	}

	tmpPath, cleanup, err := saveUpload(statementFile)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to store upload: %v", err))
	}
	defer cleanup()

	rows, stats, err := extractor.ExtractStatement(tmpPath)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Statement extraction failed: %v", err))
	}

	transactions := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, models.NewTransaction(row))
	}

	engine := voucher.NewEngine(ruleEngine, bankLedger, existing)
	part := engine.Process(transactions)

	slog.Info("conversion completed",
		"transactions", len(transactions),
		"vouchers", len(part.Vouchers),
		"duplicates", len(part.Duplicates),
		"unclassified", len(part.Unclassified),
	)

	resp := ConvertResponse{
		Success:      true,
		Vouchers:     part.Vouchers,
		Duplicates:   part.Duplicates,
		Unclassified: part.Unclassified,
		Transactions: len(transactions),
		TablesFound:  stats.TablesAccepted,
		UsedFallback: stats.UsedFallback,
		Version:      Version,
	}
	// nil slices marshal to JSON null, not [].
	if resp.Vouchers == nil {
		resp.Vouchers = []models.Voucher{}
	}
	if resp.Duplicates == nil {
		resp.Duplicates = []models.Voucher{}
	}
	if resp.Unclassified == nil {
		resp.Unclassified = []models.Transaction{}
	}

	return c.JSON(resp)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func saveUpload(fh *multipart.FileHeader) (string, func(), error) {
	tmp, err := os.CreateTemp("", "statement-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", nil, err
	}
	defer tmp.Close()

	src, err := fh.Open()
	if err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}
	defer src.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}

	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
		Version: Version,
	})
}
