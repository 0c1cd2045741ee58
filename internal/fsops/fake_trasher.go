package fsops

// FakeTrasher implements Trasher for testing.
// Records every call; paths listed in Fail return the mapped error.
type FakeTrasher struct {
	Calls []string
	Fail  map[string]error
}

func (f *FakeTrasher) Trash(path string) error {
	f.Calls = append(f.Calls, "trash:"+path)
	if err, ok := f.Fail[path]; ok {
		return err
	}
	return nil
}
