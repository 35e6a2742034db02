package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"marketing-quiz-service/internal/domain"
)

func TestWriteXLSX(t *testing.T) {
	faker := gofakeit.New(7)
	at := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	records := []domain.ResultRecord{
		{ID: 1, FullName: faker.Name(), EmailID: faker.Email(), RollNumber: "R-1", Score: 23, Percentage: 92, Badge: domain.BadgeGold, CreatedAt: at},
		{ID: 2, FullName: faker.Name(), EmailID: faker.Email(), RollNumber: "R-2", Score: 10, Percentage: 40, Badge: domain.BadgeParticipation, CreatedAt: at.Add(time.Minute)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, records))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)

	want := [][]string{
		Header,
		{"1", records[0].FullName, records[0].EmailID, "R-1", "23", "92", "Gold", "2025-03-01 10:30:00"},
		{"2", records[1].FullName, records[1].EmailID, "R-2", "10", "40", "Participation", "2025-03-01 10:31:00"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("sheet mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
