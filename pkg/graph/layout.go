// Package graph は、概念グラフの表示モデルを提供します。
// 物理シミュレーションによる自動レイアウト（Simulated モード）と、
// ノード・リンクの構造編集（Editing モード）の2つの排他的なモードを持ちます。
// レイアウト座標は派生データであり、永続化される Graph には決して書き戻されません。
package graph

import (
	"math"

	"github.com/shouni/go-lesson-kit/pkg/domain"
)

// Config はレイアウトシミュレーションのパラメータです。
type Config struct {
	Width           float64 // ビューポート幅
	Height          float64 // ビューポート高さ
	Repulsion       float64 // 全ノード間の反発力係数
	SpringLength    float64 // リンクの目標距離
	SpringStiffness float64 // リンクのばね係数
	Damping         float64 // 速度の減衰率（1未満）
	Gravity         float64 // ビューポート中心への引力
	CollideRadius   float64 // ノード円の最小半径（衝突制約）
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		Width:           960,
		Height:          600,
		Repulsion:       2000,
		SpringLength:    80,
		SpringStiffness: 0.05,
		Damping:         0.85,
		Gravity:         0.01,
		CollideRadius:   18,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width > 0 {
		d.Width = c.Width
	}
	if c.Height > 0 {
		d.Height = c.Height
	}
	if c.Repulsion > 0 {
		d.Repulsion = c.Repulsion
	}
	if c.SpringLength > 0 {
		d.SpringLength = c.SpringLength
	}
	if c.SpringStiffness > 0 {
		d.SpringStiffness = c.SpringStiffness
	}
	if c.Damping > 0 {
		d.Damping = c.Damping
	}
	if c.Gravity > 0 {
		d.Gravity = c.Gravity
	}
	if c.CollideRadius > 0 {
		d.CollideRadius = c.CollideRadius
	}
	return d
}

// Position はノードの2D座標です。
type Position struct {
	X float64
	Y float64
}

// Segment は解決済みリンクの両端座標です。宙ぶらりんのリンクはここに現れません。
type Segment struct {
	SourceID     string
	TargetID     string
	Relationship string
	From         Position
	To           Position
}

type body struct {
	x, y   float64
	vx, vy float64
	pinned bool
}

type spring struct {
	a, b         string
	relationship string
}

// Simulation は1つのノード・リンク集合に対する力学レイアウトなのだ。
// 生成のたびに全ノードをビューポート中心付近の既定配置から開始する。
// 以前の座標をデータ層に聞きに行くことは決してない（座標は永続状態ではないのだ）。
type Simulation struct {
	cfg    Config
	ids    []string // ノードの入力順
	bodies map[string]*body
	// springs は両端のノードが実在するリンクのみ。宙ぶらりんのリンクは
	// クラッシュさせず、単にレイアウトに参加しないだけなのだ。
	springs []spring
}

// goldenAngle は初期配置スパイラルの回転角（ラジアン）です。
const goldenAngle = 2.39996322972865332

// NewSimulation はグラフからシミュレーションを構築します。
// 初期配置は中心からの決定的なスパイラル（既定のジッター相当）です。
func NewSimulation(g domain.Graph, cfg Config) *Simulation {
	cfg = cfg.withDefaults()
	s := &Simulation{
		cfg:    cfg,
		bodies: make(map[string]*body, len(g.Nodes)),
	}

	cx, cy := cfg.Width/2, cfg.Height/2
	for i, n := range g.Nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := s.bodies[n.ID]; dup {
			continue
		}
		angle := float64(i) * goldenAngle
		radius := cfg.CollideRadius * math.Sqrt(float64(i))
		s.ids = append(s.ids, n.ID)
		s.bodies[n.ID] = &body{
			x: cx + radius*math.Cos(angle),
			y: cy + radius*math.Sin(angle),
		}
	}

	for _, l := range g.Links {
		_, okA := s.bodies[l.SourceID]
		_, okB := s.bodies[l.TargetID]
		if !okA || !okB {
			continue
		}
		s.springs = append(s.springs, spring{a: l.SourceID, b: l.TargetID, relationship: l.Relationship})
	}

	return s
}

// Step はシミュレーションを1ステップ進めるのだ。
// 力の適用 → 積分 → 衝突解決 の順で、ステップ内は逐次・決定的に処理する。
// ドラッグ中（pinned）のノードは積分から除外され、他のノードには通常どおり力が働く。
func (s *Simulation) Step(dt float64) {
	if dt <= 0 {
		dt = 1
	}
	n := len(s.ids)
	if n == 0 {
		return
	}

	fx := make(map[string]float64, n)
	fy := make(map[string]float64, n)

	// 1. 全ノード間の反発力（重なり防止）
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a := s.bodies[s.ids[i]]
			b := s.bodies[s.ids[j]]
			dx := a.x - b.x
			dy := a.y - b.y
			d2 := dx*dx + dy*dy
			if d2 < 0.01 {
				// 完全に重なったノードは決定的な方向に引き剥がす
				dx, dy = 1, 0
				d2 = 0.01
			}
			f := s.cfg.Repulsion / d2
			d := math.Sqrt(d2)
			fx[s.ids[i]] += dx / d * f
			fy[s.ids[i]] += dy / d * f
			fx[s.ids[j]] -= dx / d * f
			fy[s.ids[j]] -= dy / d * f
		}
	}

	// 2. リンクのばね力（目標距離への引き寄せ）
	for _, sp := range s.springs {
		a := s.bodies[sp.a]
		b := s.bodies[sp.b]
		dx := b.x - a.x
		dy := b.y - a.y
		d := math.Sqrt(dx*dx + dy*dy)
		if d < 0.1 {
			continue
		}
		f := (d - s.cfg.SpringLength) * s.cfg.SpringStiffness
		fx[sp.a] += dx / d * f
		fy[sp.a] += dy / d * f
		fx[sp.b] -= dx / d * f
		fy[sp.b] -= dy / d * f
	}

	// 3. 中心への引力と積分
	cx, cy := s.cfg.Width/2, s.cfg.Height/2
	for _, id := range s.ids {
		b := s.bodies[id]
		if b.pinned {
			// ドラッグ中はポインタ位置に固定。力の積分には参加しない
			b.vx, b.vy = 0, 0
			continue
		}
		fx[id] += (cx - b.x) * s.cfg.Gravity
		fy[id] += (cy - b.y) * s.cfg.Gravity

		b.vx = (b.vx + fx[id]*dt) * s.cfg.Damping
		b.vy = (b.vy + fy[id]*dt) * s.cfg.Damping
		b.x += b.vx * dt
		b.y += b.vy * dt
	}

	// 4. 衝突制約: 最小半径を強制し、円が視覚的に重ならないようにする
	s.resolveCollisions()
}

func (s *Simulation) resolveCollisions() {
	minDist := s.cfg.CollideRadius * 2
	n := len(s.ids)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a := s.bodies[s.ids[i]]
			b := s.bodies[s.ids[j]]
			dx := b.x - a.x
			dy := b.y - a.y
			d := math.Sqrt(dx*dx + dy*dy)
			if d >= minDist {
				continue
			}
			if d < 0.01 {
				dx, dy, d = 1, 0, 1
			}
			overlap := (minDist - d) / d
			switch {
			case a.pinned && b.pinned:
				// 両方固定なら動かせない
			case a.pinned:
				b.x += dx * overlap
				b.y += dy * overlap
			case b.pinned:
				a.x -= dx * overlap
				a.y -= dy * overlap
			default:
				a.x -= dx * overlap / 2
				a.y -= dy * overlap / 2
				b.x += dx * overlap / 2
				b.y += dy * overlap / 2
			}
		}
	}
}

// Drag はノードをポインタ位置にピン留めします。存在しないIDには false を返します。
func (s *Simulation) Drag(id string, x, y float64) bool {
	b, ok := s.bodies[id]
	if !ok {
		return false
	}
	b.pinned = true
	b.x, b.y = x, y
	b.vx, b.vy = 0, 0
	return true
}

// Release はピンを外し、ノードを自由なシミュレーションに復帰させるのだ。
func (s *Simulation) Release(id string) bool {
	b, ok := s.bodies[id]
	if !ok {
		return false
	}
	b.pinned = false
	return true
}

// Pinned は指定ノードがドラッグ中（ピン留め）かを返します。
func (s *Simulation) Pinned(id string) bool {
	b, ok := s.bodies[id]
	return ok && b.pinned
}

// Position は指定ノードの現在座標を返します。
func (s *Simulation) Position(id string) (Position, bool) {
	b, ok := s.bodies[id]
	if !ok {
		return Position{}, false
	}
	return Position{X: b.x, Y: b.y}, true
}

// Positions は全ノードの現在座標のスナップショットを返します。
func (s *Simulation) Positions() map[string]Position {
	out := make(map[string]Position, len(s.ids))
	for _, id := range s.ids {
		b := s.bodies[id]
		out[id] = Position{X: b.x, Y: b.y}
	}
	return out
}

// Segments は解決済みリンクの両端座標を返します。
func (s *Simulation) Segments() []Segment {
	out := make([]Segment, 0, len(s.springs))
	for _, sp := range s.springs {
		a := s.bodies[sp.a]
		b := s.bodies[sp.b]
		out = append(out, Segment{
			SourceID:     sp.a,
			TargetID:     sp.b,
			Relationship: sp.relationship,
			From:         Position{X: a.x, Y: a.y},
			To:           Position{X: b.x, Y: b.y},
		})
	}
	return out
}

// KineticEnergy は全ノードの運動エネルギー（速度の二乗和）を返します。
// 収束判定の目安に使います。厳密な不動点到達は要求されないのだ。
func (s *Simulation) KineticEnergy() float64 {
	var total float64
	for _, id := range s.ids {
		b := s.bodies[id]
		total += b.vx*b.vx + b.vy*b.vy
	}
	return total
}

// Settled は運動エネルギーが閾値を下回ったか（十分に安定したか）を返します。
func (s *Simulation) Settled(threshold float64) bool {
	return s.KineticEnergy() < threshold
}
