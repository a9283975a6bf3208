package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭 라벨에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5 → S6
//   Data  Validate  Align  Correlate  Graph  Community  Select

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: 패널 데이터 공급
	// 책임: DB/파일에서 (ticker, value) 스트림 로드
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageValidation S1: 입력 검증
	// 책임: 파라미터 조합 검증, 계산 전 fail-fast
	// 위치: internal/s1_validation/
	StageValidation Stage = "S1_VALIDATION"

	// StageAlignment S2: 일자별 정렬
	// 책임: day-major 스트림 → 종목 x 일자 행렬
	// 위치: internal/s2_alignment/
	StageAlignment Stage = "S2_ALIGNMENT"

	// StageCorrelation S3: 상관계수 행렬
	// 책임: pearson/spearman 절대값 행렬, 대각 0
	// 위치: internal/s3_correlation/
	StageCorrelation Stage = "S3_CORRELATION"

	// StageGraph S4: 그래프 구성
	// 책임: 상관 행렬 → 가중 무방향 그래프 (self-loop 없음)
	// 위치: internal/graph/
	StageGraph Stage = "S4_GRAPH"

	// StageCommunity S5: 커뮤니티 탐지
	// 책임: Leiden 알고리즘, resolution 파라미터
	// 위치: internal/community/
	StageCommunity Stage = "S5_COMMUNITY"

	// StageSelection S6: 커뮤니티별 상위 종목 선정
	// 책임: 평균값 기준 Top-K
	// 위치: internal/selection/
	StageSelection Stage = "S6_SELECTION"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageValidation:
		return "S1"
	case StageAlignment:
		return "S2"
	case StageCorrelation:
		return "S3"
	case StageGraph:
		return "S4"
	case StageCommunity:
		return "S5"
	case StageSelection:
		return "S6"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageData:
		return "패널 데이터 공급"
	case StageValidation:
		return "입력 검증"
	case StageAlignment:
		return "일자별 정렬"
	case StageCorrelation:
		return "상관계수 계산"
	case StageGraph:
		return "그래프 구성"
	case StageCommunity:
		return "커뮤니티 탐지"
	case StageSelection:
		return "상위 종목 선정"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageData,
		StageValidation,
		StageAlignment,
		StageCorrelation,
		StageGraph,
		StageCommunity,
		StageSelection,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
