package catalog

import "sync"

// Short codes used by the shipyard catalog.
const (
	CodeAccel    ShortCode = "가"
	CodeSkill    ShortCode = "스"
	CodeInherit  ShortCode = "승"
	CodeGunboat  ShortCode = "포"
	CodeArmored  ShortCode = "장"
	CodeBoarding ShortCode = "백"
	CodeExplorer ShortCode = "탐"
)

// Option ids referenced by name elsewhere.
const (
	Accel1           OptionID = 14
	Accel2           OptionID = 13
	Accel3           OptionID = 12
	SideCannon       OptionID = 11
	BowCannon        OptionID = 10
	SternCannon      OptionID = 9
	SkillSlot1       OptionID = 8
	SkillSlot2       OptionID = 7
	SkillInheritance OptionID = 6
	RowingPower      OptionID = 20
)

// Progression lines tracked by ChainProgress.
const (
	LineAccel   = "accel"
	LineSkill   = "skill"
	LineInherit = "inherit"
)

var shipyardOptions = []Option{
	{ID: 23, Name: "내구력 강화", Category: CategoryGeneral},
	{ID: 22, Name: "세로돛 성능 강화", Category: CategoryGeneral},
	{ID: 21, Name: "가로돛 성능 강화", Category: CategoryGeneral},
	{ID: RowingPower, Name: "조력 강화", Category: CategoryGeneral, Class: ShipGalley},
	{ID: 19, Name: "내파성 강화", Category: CategoryGeneral},
	{ID: 18, Name: "장갑 강화", Category: CategoryGeneral},
	{ID: 17, Name: "선실 적재량 강화", Category: CategoryGeneral},
	{ID: 16, Name: "포실 적재량 강화", Category: CategoryGeneral},
	{ID: 15, Name: "창고 용량 강화", Category: CategoryGeneral},
	{ID: Accel1, Name: "가속 강화1", Code: CodeAccel, Category: CategoryGeneral, Line: LineAccel},
	{ID: Accel2, Name: "가속 강화2", Code: CodeAccel, Category: CategoryGeneral, Requires: Accel1, Line: LineAccel},
	{ID: Accel3, Name: "가속 강화3", Code: CodeAccel, Category: CategoryGeneral, Requires: Accel2, Line: LineAccel},
	{ID: SideCannon, Name: "선측포 추가", Category: CategorySide},
	{ID: BowCannon, Name: "선수포 추가", Category: CategoryBow},
	{ID: SternCannon, Name: "선미포 추가", Category: CategoryStern},
	{ID: SkillSlot1, Name: "스킬칸 추가1", Code: CodeSkill, Category: CategoryGeneral, Line: LineSkill},
	{ID: SkillSlot2, Name: "스킬칸 추가2", Code: CodeSkill, Category: CategoryGeneral, Requires: SkillSlot1, Line: LineSkill},
	{ID: SkillInheritance, Name: "스킬 계승", Code: CodeInherit, Category: CategoryInheritance, Line: LineInherit},
	{ID: 5, Name: "포함 개조", Code: CodeGunboat, Category: CategoryRemodel},
	{ID: 4, Name: "장갑함 개조", Code: CodeArmored, Category: CategoryRemodel},
	{ID: 3, Name: "백병함 개조", Code: CodeBoarding, Category: CategoryRemodel},
	{ID: 2, Name: "탐사선 개조", Code: CodeExplorer, Category: CategoryRemodel},
	{ID: 1, Name: "선회 성능 강화", Category: CategoryGeneral},
}

var shipyardCodeOrder = []ShortCode{
	CodeGunboat, CodeArmored, CodeBoarding, CodeExplorer, CodeAccel, CodeSkill, CodeInherit,
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the shared shipyard catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(shipyardOptions, shipyardCodeOrder)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}
