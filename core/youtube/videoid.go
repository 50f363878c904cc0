package youtube

import "regexp"

// 视频ID为11位的 base64url 字符
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// 支持的引用形式：watch 链接、短链、embed、shorts，以及裸的视频ID
var refPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:[^#\s]*&)*v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
}

// ExtractVideoID 从用户提交的引用串里提取视频ID。
// 不认识的形式返回 ("", false)，调用方在发起任何外部请求前就应当拒绝。
func ExtractVideoID(ref string) (string, bool) {
	if videoIDPattern.MatchString(ref) {
		return ref, true
	}
	for _, p := range refPatterns {
		if m := p.FindStringSubmatch(ref); m != nil {
			return m[1], true
		}
	}
	return "", false
}
