package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"

	"payments_admin/internal/models"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const SheetName = "Payments"

var ErrUnknownFormat = errors.New("unknown export format (want .xlsx or .csv)")

var header = []string{
	"_id",
	"payee_first_name",
	"payee_last_name",
	"due_amount",
	"discount_percent",
	"tax_percent",
	"total_due",
	"currency",
	"payee_payment_status",
	"evidence",
}

// DetectFormat picks the format from the file extension of a path or URL.
func DetectFormat(target string) (Format, error) {
	p := target
	if u, err := url.Parse(target); err == nil && u != nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", ErrUnknownFormat
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Write renders rows in order as a spreadsheet with one header row.
func Write(w io.Writer, rows []models.Payment, format Format) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, rows)
	case FormatCSV:
		return writeCSV(w, rows)
	}
	return ErrUnknownFormat
}

func writeCSV(w io.Writer, rows []models.Payment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range rows {
		if err := cw.Write(textRow(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func textRow(p models.Payment) []string {
	return []string{
		p.ID,
		p.PayeeFirstName,
		p.PayeeLastName,
		p.DueAmount.StringFixed(2),
		p.DiscountPercent.String(),
		p.TaxPercent.String(),
		p.TotalDue.StringFixed(2),
		p.Currency,
		p.PaymentStatus,
		p.Evidence,
	}
}

func writeXLSX(w io.Writer, rows []models.Payment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", head); err != nil {
		return err
	}

	for i, p := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{
			p.ID,
			p.PayeeFirstName,
			p.PayeeLastName,
			p.DueAmount.InexactFloat64(),
			p.DiscountPercent.InexactFloat64(),
			p.TaxPercent.InexactFloat64(),
			p.TotalDue.InexactFloat64(),
			p.Currency,
			p.PaymentStatus,
			p.Evidence,
		}); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Uploader stores exports in the evidence bucket under exports/.
type Uploader struct {
	Client ObjectPutter
	Bucket string
	Logger *slog.Logger
}

func NewUploader(cli ObjectPutter, bucket string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{Client: cli, Bucket: bucket, Logger: logger}
}

// Upload renders rows and returns the s3:// reference of the stored object.
func (u *Uploader) Upload(ctx context.Context, rows []models.Payment, format Format) (string, error) {
	if u.Client == nil || u.Bucket == "" {
		return "", errors.New("s3 is not configured")
	}

	var buf bytes.Buffer
	if err := Write(&buf, rows, format); err != nil {
		return "", err
	}

	key := fmt.Sprintf("exports/%s.%s", uuid.NewString(), format)
	start := time.Now()
	info, err := u.Client.PutObject(ctx, u.Bucket, key, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: format.ContentType(),
	})
	if err != nil {
		u.Logger.Error("[EXPORT][S3][ERR] put", "bucket", u.Bucket, "key", key, "error", err)
		return "", fmt.Errorf("upload export: %w", err)
	}
	u.Logger.Info("[EXPORT][S3][OK]", "bucket", u.Bucket, "key", key, "rows", len(rows), "size", info.Size, "duration", time.Since(start))
	return fmt.Sprintf("s3://%s/%s", u.Bucket, key), nil
}
