package view

// TotalPages returns ceil(total / pageSize). A non-positive page size yields 0.
//
// TotalPages 返回 ceil(total / pageSize)。页面大小非正时返回0。
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage limits index to [0, totalPages-1]. With no pages the only valid index is 0.
//
// ClampPage 将index限制在[0, totalPages-1]之间。没有页面时唯一有效的索引是0。
func ClampPage(index, totalPages int) int {
	if index < 0 || totalPages <= 0 {
		return 0
	}
	if index > totalPages-1 {
		return totalPages - 1
	}
	return index
}

// Offset converts a page index into the remote listing offset.
func Offset(index, pageSize int) int {
	return index * pageSize
}
