package service

import (
	"regexp"
	"sort"
	"strings"

	"wing_erp_v1_202608/pkg/wing"
)

// ==================== ISBN 提取（纯函数，无 I/O） ====================

// isbnPattern ISBN-13：978/979 开头的连续 13 位数字
var isbnPattern = regexp.MustCompile(`97[89]\d{10}`)

// nonDigitPattern 清洗属性值用（"978-89-5674-642-5" → "9788956746425"）
var nonDigitPattern = regexp.MustCompile(`[^0-9]`)

// isbnPlaceholders 속성값의 placeholder（"상세페이지 참조", "해당없음" 등）
// 含这些子串的属性值视为无值，继续走后备策略
var isbnPlaceholders = []string{"상세", "참조", "해당없음", "없음"}

// isbnAttributeName 쿠팡 结构化属性里 ISBN 字段的 attributeTypeName
const isbnAttributeName = "ISBN"

// ValidateISBN13Checksum ISBN-13 校验
// 规则：13 位数字、978/979 注册前缀、1/3 交替加权 mod-10 校验和
// （末位 = (10 - 前 12 位加权和 mod 10) mod 10，等价于全 13 位加权和被 10 整除）
func ValidateISBN13Checksum(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}
	if !strings.HasPrefix(isbn, "978") && !strings.HasPrefix(isbn, "979") {
		return false
	}

	total := 0
	for i, ch := range isbn {
		if ch < '0' || ch > '9' {
			return false
		}
		digit := int(ch - '0')
		if i%2 == 0 {
			total += digit
		} else {
			total += digit * 3
		}
	}
	return total%10 == 0
}

// ExtractISBN 从远端商品记录中提取 ISBN
//
// 优先级（命中第一个校验通过的即返回）：
//  1. items[].attributes 中 attributeTypeName=ISBN 的结构化属性（排除 placeholder，清洗非数字字符）
//  2. items[].barcode
//  3. items[].searchTags 与 items[].vendorItemName
//  4. 顶层 sellerProductName
//
// 全部落空返回空串——记录照常入库，等下次运行或 Stage-2 的详情 payload 再补
func ExtractISBN(productName string, items []wing.ProductItem) string {
	// 1) 结构化属性（最准确）
	for _, item := range items {
		for _, attr := range item.Attributes {
			if attr.AttributeTypeName != isbnAttributeName || attr.AttributeValueName == "" {
				continue
			}
			if isISBNPlaceholder(attr.AttributeValueName) {
				continue
			}
			cleaned := nonDigitPattern.ReplaceAllString(attr.AttributeValueName, "")
			if ValidateISBN13Checksum(cleaned) {
				return cleaned
			}
		}
	}

	// 2) barcode
	for _, item := range items {
		if isbn := firstValidISBN(item.Barcode); isbn != "" {
			return isbn
		}
	}

	// 3) searchTags / vendorItemName
	for _, item := range items {
		for _, tag := range item.SearchTags {
			if isbn := firstValidISBN(tag); isbn != "" {
				return isbn
			}
		}
		if isbn := firstValidISBN(item.VendorItemName); isbn != "" {
			return isbn
		}
	}

	// 4) sellerProductName
	return firstValidISBN(productName)
}

// ExtractAllISBNs 提取记录中全部校验通过的 ISBN（去重排序）
// 세트 商品（一行对应多本书）和 raw_json 回填用；比 ExtractISBN 多扫 externalVendorSku
func ExtractAllISBNs(productName string, items []wing.ProductItem) []string {
	found := make(map[string]struct{})

	collect := func(s string) {
		for _, m := range isbnPattern.FindAllString(s, -1) {
			if ValidateISBN13Checksum(m) {
				found[m] = struct{}{}
			}
		}
	}

	for _, item := range items {
		for _, attr := range item.Attributes {
			if attr.AttributeTypeName == isbnAttributeName && !isISBNPlaceholder(attr.AttributeValueName) {
				cleaned := nonDigitPattern.ReplaceAllString(attr.AttributeValueName, "")
				if ValidateISBN13Checksum(cleaned) {
					found[cleaned] = struct{}{}
				}
			}
			collect(attr.AttributeValueName)
		}
		collect(item.Barcode)
		collect(item.ExternalVendorSku)
		for _, tag := range item.SearchTags {
			collect(tag)
		}
		collect(item.VendorItemName)
	}
	collect(productName)

	isbns := make([]string, 0, len(found))
	for isbn := range found {
		isbns = append(isbns, isbn)
	}
	sort.Strings(isbns)
	return isbns
}

func isISBNPlaceholder(value string) bool {
	for _, p := range isbnPlaceholders {
		if strings.Contains(value, p) {
			return true
		}
	}
	return false
}

func firstValidISBN(s string) string {
	for _, m := range isbnPattern.FindAllString(s, -1) {
		if ValidateISBN13Checksum(m) {
			return m
		}
	}
	return ""
}
