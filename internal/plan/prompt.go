package plan

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the full generation prompt: deck structure, the slide
// budget from p, per-type JSON field requirements, the visual schema, the
// source text, and a skeleton of the expected JSON array.
func BuildPrompt(text string, p Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, `
Sənə bir sənədin mətni təqdim olunur. Bu mətni təhlil et və təqdimat üçün aşağıdakı struktura uyğun slayd formatında hazırla:

TƏQDİMATIN STRUKTURU:
1. Başlıq – Təqdimatın adı
2. Giriş – Məqsəd və təqdim olunacaq mövzu üzrə qısa xülasə
3. Əsas Slaydlar – Mətndəki əsas mövzulardan hər biri üçün ayrıca slayd:
   • Hər biri unikal başlığa sahib olmalıdır
   • Hər slaydda **4 əsas bənd** olmalıdır
   • Slayd sayı: İstifadəçi %d slayd istəmişdir, bu saydan **1 başlıq**, **1 giriş**, **1 tövsiyə** slayd çıxıldıqdan sonra qalan **%d** slayd əsas mövzular üçün istifadə olunmalıdır.
4. Tövsiyə – Gələcək inkişaf və təkmilləşdirmə üçün 4–5 bəndlik təkliflər.

QAYDALAR:
- İstifadəçi %d slayd istəmişdir. Mətni analiz et və bu sayda slayda uyğun şəkildə ayır.
- Hər slayd üçün JSON obyektində aşağıdakı sahələri yaz:
  - type: "title" | "intro" | "main" | "recommendation"
  - Başlıq üçün (type = "title"):
    • title (təqdimatın adı)
  - Giriş üçün (type = "intro"):
    • aim (təqdimatın məqsədi)
    • summary (layihənin qısa xülasəsi, 3-4 cümlə)
  - Əsas slaydlar üçün (type = "main"):
    • title (slaydın başlığı)
    • point1, point2, point3, point4 (hər biri əsas məzmun bəndləri)
    • visual (vizual təklif üçün JSON obyekti, aşağıdakı formatda)
  - Tövsiyə slaydı üçün (type = "recommendation"):
    • recommendation1, recommendation2, recommendation3, recommendation4, (optional) recommendation5
- Hər slayd üçün:
  • Mətni slayd sayına uyğun şəkildə bərabər böl.
  • Cümlə dəyərlərinin içində qaçırılmamış qoşa dırnaq işarələrindən istifadə etmə. Daxili dırnaq işarələri üçün tək dırnaqdan istifadə et.
  • Lazımsız təkrarlardan, çox uzun cümlələrdən qaç.
  • Slayd dili **rəsmi və aydın olmalıdır**.
  • Əgər statistik və ya əsas nəticələr varsa, Əsas Göstəricilər slaydına daxil et.
  • Slaydların məzmunu yalnız sənədə əsaslanmalıdır, əlavə məlumat əlavə etmə.
  %s
`, p.SlideCount, p.MainCount, p.SlideCount, p.Note())

	b.WriteString(`
- Vizual təklif JSON formatı (mümkün olduqca fərqli növ vizuallar əlavə et, type image daxil olmaqla.):
    ` + "```json" + `
    {
        "type": "none" | "image" | "bar" | "pie" | "line",
        "title": "Vizualın başlığı",
        "description": "Əgər type 'image'dirsə, burada şəkilin ətraflı təsviri verilir. Digər hallarda boş saxlanılır.",
        "xlabel": "X oxunun etiketi (əgər tətbiq olunursa)",
        "ylabel": "Y oxunun etiketi (əgər tətbiq olunursa)",
        "x": ["X oxundakı dəyərlər (əgər varsa)"],
        "y": ["Y oxundakı dəyərlər (əgər varsa)"],
        "labels": ["Dilim adları (əgər 'pie' tipi tətbiq olunursa)"],
        "sizes": ["Dilim ölçüləri (əgər 'pie' tipi tətbiq olunursa)"]
    }
    ` + "```" + `

    - ` + "`type`" + ` sahəsi yalnız aşağıdakı dəyərlərdən biri ola bilər: "none", "image", "bar", "pie", "line"
    - ` + "`type`" + ` = "image" olduqda, ` + "`description`" + ` sahəsi vacibdir və şəkilin məzmununu izah etməlidir.
    - ` + "`type`" + ` = "bar" və ya "line" olduqda x, y, xlabel, ylabel sahələri dolu olmalıdır.
    -  Əgər uyğun vizual yoxdursa, ` + "`type`" + ` dəyəri ` + "`\"none\"`" + ` olmalıdır.
    - ` + "`type`" + ` = "pie" olduqda labels və sizes sahələri dolu olmalı, ` + "`x`, `y`, `xlabel`, `ylabel`" + ` isə boş buraxılmalıdır.
    - ` + "`type`" + ` = "none" olduqda digər sahələr boş buraxılmalıdır.

TƏHLİL EDİLƏCƏK SƏNƏDİN MƏTNI:
"""
`)
	b.WriteString(text)
	b.WriteString(`
"""

CAVABI BU FORMATA JSON ARRAY KİMİ QAYTAR:

` + "```json" + `
[
  {
    "type": "title",
    "title": "Təqdimatın adı"
  },
  {
    "type": "intro",
    "aim": "Təqdimatın məqsədi",
    "summary": "Layihənin qısa xülasəsi"
  },
  {
    "type": "main",
    "title": "Əsas mövzunun başlığı",
    "point1": "...",
    "point2": "...",
    "point3": "...",
    "point4": "...",
    "visual": {
      "type": "bar",
      "title": "",
      "description": "",
      "xlabel": "",
      "ylabel": "",
      "x": [],
      "y": [],
      "labels": [],
      "sizes": []
    }
  },
  ...
  {
    "type": "recommendation",
    "recommendation1": "...",
    "recommendation2": "...",
    "recommendation3": "...",
    "recommendation4": "...",
    "recommendation5": "..."
  }
]
` + "```" + `
`)
	return b.String()
}
