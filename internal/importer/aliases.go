package importer

// aliases maps normalized header spellings (lowercase, letters and digits
// only) to field names.
var aliases = buildAliases(map[string][]string{
	"approvalDate":       {"approvalDate", "approval date", "date", "action date", "승인일", "승인일자", "허가일"},
	"approvalMonth":      {"approvalMonth", "approval month", "month", "승인월"},
	"applicationNo":      {"applicationNo", "application no", "application number", "appl no", "app no", "신청번호"},
	"ndaBlaNumber":       {"ndaBlaNumber", "nda/bla", "nda/bla number", "nda bla no", "허가번호"},
	"applicationType":    {"applicationType", "application type", "type", "appl type", "신청유형", "유형"},
	"brandName":          {"brandName", "brand name", "brand", "drug name", "product name", "제품명", "브랜드명", "상품명"},
	"activeIngredient":   {"activeIngredient", "active ingredient", "ingredient", "generic name", "성분", "성분명", "주성분"},
	"sponsor":            {"sponsor", "company", "applicant", "manufacturer", "제약사", "회사", "회사명", "신청자"},
	"indicationFull":     {"indicationFull", "indication", "indications", "적응증"},
	"therapeuticArea":    {"therapeuticArea", "therapeutic area", "area", "치료영역", "치료분야"},
	"isOncology":         {"isOncology", "oncology", "항암제", "항암"},
	"isBiosimilar":       {"isBiosimilar", "biosimilar", "바이오시밀러"},
	"isNovelDrug":        {"isNovelDrug", "novel drug", "novel", "신약"},
	"isOrphanDrug":       {"isOrphanDrug", "orphan drug", "orphan", "희귀의약품"},
	"isCberProduct":      {"isCberProduct", "cber", "cber product"},
	"approvalType":       {"approvalType", "approval type", "승인유형", "승인구분"},
	"supplementCategory": {"supplementCategory", "supplement category", "supplement", "submission type", "보충유형", "변경유형"},
	"notes":              {"notes", "note", "remarks", "비고", "메모"},
	"fdaUrl":             {"fdaUrl", "fda url", "url", "link", "링크"},
})

func buildAliases(fields map[string][]string) map[string]string {
	out := make(map[string]string)
	for field, names := range fields {
		for _, name := range names {
			out[normalizeHeader(name)] = field
		}
	}
	return out
}
