package ports

import (
	"golm/domain/table"
)

// DatasetReader loads one rectangular dataset with named columns from an
// external source (xlsx, csv)
type DatasetReader interface {
	Read(path string) (*table.Table, error)
}
