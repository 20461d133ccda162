package sections

// FileSet maps a bucket to the paths written for it in one agent run.
// A bucket that is absent or empty counts as missing.
type FileSet map[string][]string

// bucketOrder is the stable order used when flattening a FileSet.
var bucketOrder = append(RequiredBuckets(), BucketTypes)

// NewFileSet returns a set with every required bucket present and empty.
func NewFileSet() FileSet {
	fs := make(FileSet, len(bucketOrder))
	for _, b := range RequiredBuckets() {
		fs[b] = []string{}
	}
	return fs
}

// Has reports whether bucket has at least one path.
func (fs FileSet) Has(bucket string) bool {
	return len(fs[bucket]) > 0
}

// Missing returns the buckets from want that have no paths, in want order.
func (fs FileSet) Missing(want []string) []string {
	var out []string
	for _, b := range want {
		if !fs.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

// Produced returns the buckets that have paths, in stable order.
func (fs FileSet) Produced() []string {
	var out []string
	for _, b := range bucketOrder {
		if fs.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

// Paths flattens the set in stable bucket order, leaving out the excluded buckets.
func (fs FileSet) Paths(exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	var out []string
	for _, b := range bucketOrder {
		if skip[b] {
			continue
		}
		out = append(out, fs[b]...)
	}
	return out
}

// First returns the first path of bucket or "".
func (fs FileSet) First(bucket string) string {
	if len(fs[bucket]) == 0 {
		return ""
	}
	return fs[bucket][0]
}

// Last returns the last path of bucket or "".
func (fs FileSet) Last(bucket string) string {
	if len(fs[bucket]) == 0 {
		return ""
	}
	return fs[bucket][len(fs[bucket])-1]
}
