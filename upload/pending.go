package upload

// Pending is the transient upload state of one record. Embed it in a model:
//
//	type Document struct {
//		gorm.Model
//		upload.Pending `gorm:"-" json:"-"`
//		File string
//	}
type Pending struct {
	files map[string]*File
	// stored keys an attached file replaces, removed once it is saved
	replaced map[string][]string
	// set while the behaviors persist the stored path; hooks fired meanwhile are ignored
	suspended bool
}

// Record is a gorm model pointer carrying upload state.
type Record interface {
	UploadState() *Pending
}

func (p *Pending) UploadState() *Pending {
	return p
}

// Attach queues f to be stored for attribute on the next save.
func (p *Pending) Attach(attribute string, f *File) {
	if p.files == nil {
		p.files = make(map[string]*File)
	}
	p.files[attribute] = f
}

func (p *Pending) Attached(attribute string) *File {
	return p.files[attribute]
}

func (p *Pending) detach(attribute string) {
	delete(p.files, attribute)
}

func (p *Pending) setReplaced(attribute string, keys []string) {
	if len(keys) == 0 {
		delete(p.replaced, attribute)
		return
	}
	if p.replaced == nil {
		p.replaced = make(map[string][]string)
	}
	p.replaced[attribute] = keys
}

// Suspended reports whether upload hooks are currently disabled for the record.
func (p *Pending) Suspended() bool {
	return p.suspended
}
