package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/imcadom/entregas/internal/model"
)

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func TestWriteDeliveries(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	returnedAt := created.Add(48 * time.Hour)
	deliveries := []model.Delivery{
		{ID: 2, CreatedAt: created, EquipmentName: "iPhone 13", EquipmentType: "Teléfono", IMEI: "490154203237518",
			RecipientName: "Beto", Notes: "con funda", Returned: true, ReturnedAt: &returnedAt},
		{ID: 1, CreatedAt: created, EquipmentName: "Laptop Dell", EquipmentType: "Portátil", IMEI: "N/A",
			RecipientName: "Ana", Notes: "sin cargador"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDeliveries(&buf, deliveries))

	rows := readRows(t, buf.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"2024-05-01 10:00", "iPhone 13", "Teléfono", "490154203237518", "Beto", "con funda"}, rows[1])
	assert.Equal(t, []string{"2024-05-01 10:00", "Laptop Dell", "Portátil", "N/A", "Ana", "sin cargador"}, rows[2])
}

func TestWriteDeliveriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDeliveries(&buf, nil))

	rows := readRows(t, buf.Bytes())
	require.Len(t, rows, 1)
	assert.Equal(t, Columns, rows[0])
}
