package taxonomy

// 内置分类表：中国大陆及港澳按菜系习惯划分为七个大区
// 约束：编码沿用 ISO 3166-2:CN，与前端 SVG 的要素 id 一致；Count 为无后端数据时的大区菜谱数
var defaultRegions = []Region{
	{
		ID: "north", Name: "North China",
		Colors:  Colors{Base: "#f6d7a7", Hover: "#f3c583", Selected: "#e9a23b"},
		Members: []string{"beijing", "tianjin", "hebei", "shanxi", "inner-mongolia"},
		Count:   128,
	},
	{
		ID: "northeast", Name: "Northeast",
		Colors:  Colors{Base: "#c8e0f4", Hover: "#a9cdee", Selected: "#4a90d9"},
		Members: []string{"liaoning", "jilin", "heilongjiang"},
		Count:   74,
	},
	{
		ID: "east", Name: "East China",
		Colors:  Colors{Base: "#cfe8cf", Hover: "#b0d9b0", Selected: "#4caf50"},
		Members: []string{"shanghai", "jiangsu", "zhejiang", "anhui", "fujian", "jiangxi", "shandong"},
		Count:   236,
	},
	{
		ID: "central", Name: "Central China",
		Colors:  Colors{Base: "#f4d0d0", Hover: "#eeb3b3", Selected: "#d9534f"},
		Members: []string{"henan", "hubei", "hunan"},
		Count:   112,
	},
	{
		ID: "south", Name: "South China",
		Colors:  Colors{Base: "#fbe3c2", Hover: "#f8cf96", Selected: "#f0913a"},
		Members: []string{"guangdong", "guangxi", "hainan", "hong-kong", "macau"},
		Count:   189,
	},
	{
		ID: "southwest", Name: "Southwest",
		Colors:  Colors{Base: "#e3d3ef", Hover: "#d1b7e6", Selected: "#8e44ad"},
		Members: []string{"chongqing", "sichuan", "guizhou", "yunnan", "tibet"},
		Count:   167,
	},
	{
		ID: "northwest", Name: "Northwest",
		Colors:  Colors{Base: "#e8e0c8", Hover: "#dacca3", Selected: "#a68a3d"},
		Members: []string{"shaanxi", "gansu", "qinghai", "ningxia", "xinjiang"},
		Count:   95,
	},
}

var defaultSubdivisions = []Subdivision{
	{Name: "beijing", Code: "CN-BJ", Display: "Beijing", Label: "北京市"},
	{Name: "tianjin", Code: "CN-TJ", Display: "Tianjin", Label: "天津市"},
	{Name: "hebei", Code: "CN-HE", Display: "Hebei", Label: "河北省"},
	{Name: "shanxi", Code: "CN-SX", Display: "Shanxi", Label: "山西省"},
	{Name: "inner-mongolia", Code: "CN-NM", Display: "Inner Mongolia", Label: "内蒙古自治区"},
	{Name: "liaoning", Code: "CN-LN", Display: "Liaoning", Label: "辽宁省"},
	{Name: "jilin", Code: "CN-JL", Display: "Jilin", Label: "吉林省"},
	{Name: "heilongjiang", Code: "CN-HL", Display: "Heilongjiang", Label: "黑龙江省"},
	{Name: "shanghai", Code: "CN-SH", Display: "Shanghai", Label: "上海市"},
	{Name: "jiangsu", Code: "CN-JS", Display: "Jiangsu", Label: "江苏省"},
	{Name: "zhejiang", Code: "CN-ZJ", Display: "Zhejiang", Label: "浙江省"},
	{Name: "anhui", Code: "CN-AH", Display: "Anhui", Label: "安徽省"},
	{Name: "fujian", Code: "CN-FJ", Display: "Fujian", Label: "福建省"},
	{Name: "jiangxi", Code: "CN-JX", Display: "Jiangxi", Label: "江西省"},
	{Name: "shandong", Code: "CN-SD", Display: "Shandong", Label: "山东省"},
	{Name: "henan", Code: "CN-HA", Display: "Henan", Label: "河南省"},
	{Name: "hubei", Code: "CN-HB", Display: "Hubei", Label: "湖北省"},
	{Name: "hunan", Code: "CN-HN", Display: "Hunan", Label: "湖南省"},
	{Name: "guangdong", Code: "CN-GD", Display: "Guangdong", Label: "广东省"},
	{Name: "guangxi", Code: "CN-GX", Display: "Guangxi", Label: "广西壮族自治区"},
	{Name: "hainan", Code: "CN-HI", Display: "Hainan", Label: "海南省"},
	{Name: "hong-kong", Code: "CN-HK", Display: "Hong Kong", Label: "香港特别行政区"},
	{Name: "macau", Code: "CN-MO", Display: "Macau", Label: "澳门特别行政区"},
	{Name: "chongqing", Code: "CN-CQ", Display: "Chongqing", Label: "重庆市"},
	{Name: "sichuan", Code: "CN-SC", Display: "Sichuan", Label: "四川省"},
	{Name: "guizhou", Code: "CN-GZ", Display: "Guizhou", Label: "贵州省"},
	{Name: "yunnan", Code: "CN-YN", Display: "Yunnan", Label: "云南省"},
	{Name: "tibet", Code: "CN-XZ", Display: "Tibet", Label: "西藏自治区"},
	{Name: "shaanxi", Code: "CN-SN", Display: "Shaanxi", Label: "陕西省"},
	{Name: "gansu", Code: "CN-GS", Display: "Gansu", Label: "甘肃省"},
	{Name: "qinghai", Code: "CN-QH", Display: "Qinghai", Label: "青海省"},
	{Name: "ningxia", Code: "CN-NX", Display: "Ningxia", Label: "宁夏回族自治区"},
	{Name: "xinjiang", Code: "CN-XJ", Display: "Xinjiang", Label: "新疆维吾尔自治区"},
}

var defaultTaxonomy = MustNew(defaultRegions, defaultSubdivisions)

// Default：返回内置分类表（进程级单例）
func Default() *Taxonomy { return defaultTaxonomy }
