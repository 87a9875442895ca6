package caption

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	punctuation = regexp.MustCompile(`[.!?;:"'()\[\]{}]`)
	digitsOnly  = regexp.MustCompile(`^\d+$`)
	latinOnly   = regexp.MustCompile(`^[a-zA-Z]+$`)
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var stopWords = set(
	"이", "그", "저", "것", "들", "의", "가", "을", "를", "에", "와", "과", "도", "로", "으로",
	"는", "은", "이다", "있다", "없다", "하다", "되다", "같다", "다른", "새로운", "좋은", "나쁜",
	"있는", "없는", "하는", "되는", "같은", "오래된", "깨끗한", "더러운",
	"한", "두", "세", "네", "개", "명", "마리", "병", "잔", "그릇", "접시", "상자", "봉지", "포장",
	"매우", "정말", "진짜", "너무", "아주", "꽤", "조금", "약간", "살짝",
	"위에", "아래에", "옆에", "앞에", "뒤에", "안에", "밖에", "사이에", "근처에",
	"그리고", "또한", "하지만", "그러나", "그래서",
	"더", "키트", "킷", "유닛", "것들", "아이템", "제품", "상품", "물건",
)

var brands = set(
	"나이키", "아디다스", "뉴발란스", "컨버스", "반스", "푸마", "아식스", "리복",
	"토트넘", "맨유", "맨시티", "아스널", "첼시", "리버풀", "바르샤", "레알", "바이에른",
	"삼성", "애플", "lg", "아이폰", "갤럭시", "맥북", "아이패드",
	"구찌", "샤넬", "루이비통", "프라다", "에르메스", "디올", "발렌시아가",
)

var categories = set(
	"유니폼", "저지", "셔츠", "티셔츠", "후드", "맨투맨", "니트", "가디건", "조끼",
	"바지", "치마", "원피스", "자켓", "코트", "패딩", "점퍼",
	"신발", "운동화", "구두", "샌들", "부츠", "슬리퍼", "하이힐", "로퍼",
	"가방", "백팩", "토트백", "크로스백", "클러치", "지갑", "벨트",
	"시계", "목걸이", "반지", "귀걸이", "팔찌", "선글라스", "모자",
	"축구", "농구", "야구", "테니스", "골프", "러닝", "헬스", "요가",
	"노트북", "컴퓨터", "마우스", "키보드", "모니터", "스피커", "헤드폰",
	"스마트폰", "휴대폰", "태블릿", "이어폰", "충전기", "케이스",
)

var colors = set(
	"빨간", "파란", "노란", "초록", "보라", "분홍", "주황", "갈색",
	"검은", "흰", "회색", "베이지", "네이비", "카키", "민트", "라벤더",
	"빨강", "파랑", "노랑", "검정", "하양", "원정", "홈",
)

const maxKeywords = 3

// ExtractKeywords picks up to three search terms from a Korean caption.
// A brand plus category pair wins, then a category with a modifier, then the
// longest remaining words. Latin-only and numeric words are ignored.
func ExtractKeywords(caption string) []string {
	text := strings.ToLower(strings.TrimSpace(caption))
	if text == "" {
		return []string{}
	}

	// captioners tend to repeat the same phrase separated by commas
	seenPhrase := map[string]bool{}
	var phrases []string
	for _, p := range strings.Split(text, ",") {
		p = strings.TrimSpace(p)
		if p != "" && !seenPhrase[p] {
			seenPhrase[p] = true
			phrases = append(phrases, p)
		}
	}
	text = punctuation.ReplaceAllString(strings.Join(phrases, " "), " ")

	seen := map[string]bool{}
	var words []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) < 2 || stopWords[w] || digitsOnly.MatchString(w) || latinOnly.MatchString(w) {
			continue
		}
		if !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}

	var bs, cs, cols, rest []string
	for _, w := range words {
		switch {
		case brands[w]:
			bs = append(bs, w)
		case categories[w]:
			cs = append(cs, w)
		case colors[w]:
			cols = append(cols, w)
		default:
			rest = append(rest, w)
		}
	}

	var out []string
	switch {
	case len(bs) > 0 && len(cs) > 0:
		out = append(out, bs[0]+" "+cs[0])
		if len(cols) > 0 {
			out = append(out, cols[0])
		}
	case len(cs) > 0:
		out = append(out, cs[0])
		if len(rest) > 0 {
			out = append(out, rest[0])
		}
		if len(cols) > 0 {
			out = append(out, cols[0])
		}
	default:
		longest := append([]string(nil), words...)
		sort.SliceStable(longest, func(i, j int) bool {
			return utf8.RuneCountInString(longest[i]) > utf8.RuneCountInString(longest[j])
		})
		out = longest
	}

	if len(out) > maxKeywords {
		out = out[:maxKeywords]
	}
	if len(out) == 0 {
		return []string{}
	}
	return out
}

// SearchQuery joins keywords into the shopping search string.
func SearchQuery(keywords []string) string {
	return strings.TrimSpace(strings.Join(keywords, " "))
}
