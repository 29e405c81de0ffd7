package blogservice

import (
	"github.com/sushihentaime/blogmate/internal/common"
)

const maxBulkIDs = 100

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 3, 200), "title", "must be between 3 and 200 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(len(content) <= 50000, "content", "must not be more than 50000 characters long")
}

func validateCommentContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(len(content) <= 2000, "content", "must not be more than 2000 characters long")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}

func validateIDList(v *common.Validator, ids []int) {
	v.Check(len(ids) > 0, "blog_ids", "must be provided")
	v.Check(len(ids) <= maxBulkIDs, "blog_ids", "must not contain more than 100 ids")
	for _, id := range ids {
		if id <= 0 {
			v.AddError("blog_ids", "must only contain ids greater than zero")
			break
		}
	}
}
