package conf

// Merge applies patch on top of dst. Tables merge key by key, recursively;
// any other value in patch, arrays included, replaces the value in dst.
// Tables in patch are copied, so dst never aliases patch.
func Merge(dst, patch Document) {
	mergeTable(dst, patch)
}

func mergeTable(dst, patch map[string]any) {
	for key, value := range patch {
		patchTable, ok := value.(map[string]any)
		if !ok {
			dst[key] = value
			continue
		}
		dstTable, ok := dst[key].(map[string]any)
		if !ok {
			dstTable = make(map[string]any, len(patchTable))
			dst[key] = dstTable
		}
		mergeTable(dstTable, patchTable)
	}
}
