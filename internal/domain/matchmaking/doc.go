// Package matchmaking содержит ядро подбора Emma Hub.
//
// ══════════════════════════════════════════════════════════════════════════════
// MATCHMAKING PHILOSOPHY
//
// Философия подбора: "Совместимость важнее популярности"
//
// При подборе пар и групп мы приоритизируем:
// 1. Схожесть ответов на анкету (общие интересы и ценности)
// 2. Близость по классу (не более одного года разницы)
// 3. Взаимность предпочтений (для категории date принимают обе стороны)
// 4. Полноту покрытия (никто не выпадает: нераспределённые уходят в группы)
//
// НЕ приоритизируем:
// - Глобальную справедливость между категориями (friend/date/group независимы)
// - Историю прошлых прогонов (каждый прогон считается с нуля)
//
// Ядро не имеет внешних зависимостей и не хранит состояние между прогонами:
// один вызов Engine.Run получает снимок ростера и возвращает полный результат.
// ══════════════════════════════════════════════════════════════════════════════
package matchmaking
