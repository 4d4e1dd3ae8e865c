package store

import (
	"fmt"

	"github.com/gcbaptista/imagination-concordance/internal/persistence"
	"github.com/gcbaptista/imagination-concordance/model"
)

// snapshotVersion guards against decoding snapshots written by an incompatible build.
const snapshotVersion = 1

type snapshotData struct {
	Version int
	Records []model.MetadataRecord
}

// SaveSnapshot persists the records of idx to path.
func SaveSnapshot(path string, idx *CorpusIndex) error {
	if idx == nil {
		return fmt.Errorf("cannot snapshot an empty corpus")
	}
	return persistence.SaveGob(path, snapshotData{Version: snapshotVersion, Records: idx.Records})
}

// LoadSnapshot restores an index written by SaveSnapshot.
func LoadSnapshot(path string) (*CorpusIndex, error) {
	var data snapshotData
	if err := persistence.LoadGob(path, &data); err != nil {
		return nil, err
	}
	if data.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot %s has version %d, expected %d", path, data.Version, snapshotVersion)
	}
	return NewCorpusIndex(data.Records), nil
}
