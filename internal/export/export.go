// Package export выгружает список участников с состоянием подписок.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/EvgenyiK/pulsefit-service/internal/models"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	FileBase  = "pulsefit-users"
	sheetName = "Users"
)

var header = []string{"Name", "Email", "Subscription", "Price", "Start Date", "End Date", "Status"}

// Row — одна строка выгрузки
type Row struct {
	Name      string
	Email     string
	Category  string
	Price     int
	StartDate string
	EndDate   string
	Status    models.Status
}

// Rows строит строки выгрузки; участники без подписки пропускаются
func Rows(members []models.MemberView) []Row {
	rows := make([]Row, 0, len(members))
	for _, m := range members {
		if m.Subscription == nil || m.View == nil {
			continue
		}
		rows = append(rows, Row{
			Name:      m.Name,
			Email:     m.Email,
			Category:  m.Subscription.Category,
			Price:     m.Subscription.Price,
			StartDate: m.Subscription.StartDate.Format(models.DateLayout),
			EndDate:   m.Subscription.EndDate.Format(models.DateLayout),
			Status:    m.View.Status,
		})
	}
	return rows
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Name, r.Email, r.Category, strconv.Itoa(r.Price), r.StartDate, r.EndDate, string(r.Status)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, sheetName); err != nil {
		return err
	}

	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		excelRow := []interface{}{r.Name, r.Email, r.Category, r.Price, r.StartDate, r.EndDate, string(r.Status)}
		if err := f.SetSheetRow(sheetName, cell, &excelRow); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// ContentType MIME-тип для формата выгрузки
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
