// Package simulator runs the decision core over scripted timelines. Scripts
// are Lua files that build a Scenario step by step:
//
//	local s = Scenario.new("whistle in playing")
//	s:robot({ player = 3, role = "striker", x = -2, y = 0 })
//	s:state("playing")
//	s:whistle()
//	s:cycle()
//	s:expect_reports(1)
//	return s
package simulator

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is a named list of steps recorded by a script.
type Scenario struct {
	Name        string
	CyclePeriod time.Duration
	Steps       []Step
}

// Step is one scripted instruction. Args holds the Lua arguments converted
// to Go values: strings, bools, int, float64, maps and slices.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadFile runs the script at path and returns the Scenario it builds.
func LoadFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

// scenarioNew takes a name and an optional table with cycle_ms.
func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	opts := optionalTable(state, 2)
	if ms, ok := opts["cycle_ms"]; ok {
		v, ok := toFloat(ms)
		if !ok || v <= 0 {
			lua.ArgumentError(state, 2, "cycle_ms must be a positive number")
			return 0
		}
		scenario.CyclePeriod = time.Duration(v * float64(time.Millisecond))
	}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "robot", Function: scenarioRobot},
	{Name: "state", Function: scenarioState},
	{Name: "role", Function: scenarioRole},
	{Name: "game", Function: scenarioGame},
	{Name: "pose", Function: scenarioPose},
	{Name: "lose_pose", Function: scenarioLosePose},
	{Name: "fall", Function: scenarioFall},
	{Name: "ball", Function: scenarioBall},
	{Name: "lose_ball", Function: scenarioLoseBall},
	{Name: "whistle", Function: scenarioWhistle},
	{Name: "score", Function: scenarioScore},
	{Name: "hand_signal", Function: scenarioHandSignal},
	{Name: "advance", Function: scenarioAdvance},
	{Name: "cycle", Function: scenarioCycle},
	{Name: "expect_action", Function: scenarioExpectAction},
	{Name: "expect_reports", Function: scenarioExpectReports},
	{Name: "expect_reporter", Function: scenarioExpectReporter},
}

func scenarioRobot(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "robot", tableToMap(state, 2))
	return 0
}

func scenarioState(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "state", map[string]any{"value": lua.CheckString(state, 2)})
	return 0
}

func scenarioRole(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "role", map[string]any{"value": lua.CheckString(state, 2)})
	return 0
}

func scenarioGame(state *lua.State) int {
	scenario := checkScenario(state)
	data := optionalTable(state, 3)
	data["value"] = lua.CheckString(state, 2)
	appendStep(scenario, "game", data)
	return 0
}

func scenarioPose(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "pose", map[string]any{
		"x":     lua.CheckNumber(state, 2),
		"y":     lua.CheckNumber(state, 3),
		"theta": lua.OptNumber(state, 4, 0),
	})
	return 0
}

func scenarioLosePose(state *lua.State) int {
	appendStep(checkScenario(state), "lose_pose", nil)
	return 0
}

// scenarioFall takes "upright", "falling" with a direction, or "fallen"
// with a facing.
func scenarioFall(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "fall", map[string]any{
		"value":  lua.CheckString(state, 2),
		"detail": lua.OptString(state, 3, ""),
	})
	return 0
}

func scenarioBall(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "ball", tableToMap(state, 2))
	return 0
}

func scenarioLoseBall(state *lua.State) int {
	appendStep(checkScenario(state), "lose_ball", nil)
	return 0
}

func scenarioWhistle(state *lua.State) int {
	appendStep(checkScenario(state), "whistle", nil)
	return 0
}

func scenarioScore(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "score", map[string]any{
		"own":      lua.CheckInteger(state, 2),
		"opponent": lua.CheckInteger(state, 3),
		"sender":   lua.OptString(state, 4, ""),
	})
	return 0
}

// scenarioHandSignal sets the classified hand signal; nil clears it.
func scenarioHandSignal(state *lua.State) int {
	scenario := checkScenario(state)
	data := map[string]any{}
	if !state.IsNoneOrNil(2) {
		data["value"] = lua.CheckInteger(state, 2)
	}
	appendStep(scenario, "hand_signal", data)
	return 0
}

func scenarioAdvance(state *lua.State) int {
	scenario := checkScenario(state)
	seconds := lua.CheckNumber(state, 2)
	if seconds <= 0 {
		lua.ArgumentError(state, 2, "seconds must be positive")
		return 0
	}
	appendStep(scenario, "advance", map[string]any{"seconds": seconds})
	return 0
}

func scenarioCycle(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "cycle", map[string]any{"count": lua.OptInteger(state, 2, 1)})
	return 0
}

func scenarioExpectAction(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "expect_action", map[string]any{"value": lua.CheckString(state, 2)})
	return 0
}

func scenarioExpectReports(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "expect_reports", map[string]any{"value": lua.CheckInteger(state, 2)})
	return 0
}

func scenarioExpectReporter(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "expect_reporter", map[string]any{"value": lua.CheckString(state, 2)})
	return 0
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if scenario == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		if math.Mod(value, 1) == 0 {
			return int(value)
		}
		return value
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToMap(state, index)
	default:
		return nil
	}
}
