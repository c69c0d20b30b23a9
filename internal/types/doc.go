// Package types holds the JSON shapes exchanged with websocket clients.
//
// Client -> Server
//   join: {}
//
//   start: {}
//
//   next: {}
//
//   vote:
//     selection: "S" | "A" | "B" | "C" | "D" | "E" | "F"
//     person: { name: string, avatar: string }
//
//   show_final_results: {}
//
//   return_to_menu: {}
//
// Server -> Client
//   join (sent only to the connecting client):
//     type: "join"
//     data:
//       state: "MENU" | "LOBBY" | "IN_PROGRESS" | "ROUND_RESULTS" | "FINAL_RESULTS"
//       selection: string          // current item
//       timer: string              // remaining units
//       results: VotedTiers | TierResults
//       round: number
//       roundInProgress: boolean
//       showResults: boolean
//       end: boolean
//       average: tier | null
//
//   state:
//     type: "state"
//     data: { state }
//
//   round start:
//     start: true
//     item: string
//     showResults?: boolean
//
//   tick:
//     time: string
//
//   round result:
//     results: { item: string, average: tier | null, showResults: true }
//
//   votes:
//     votes: { [tier]: { name, avatar }[] }
//
//   end:
//     type: "end"
//     data: { results: { [tier]: string[] } }
//
//   left:
//     message: "someone has left the chat"
//
//   Error:
//     type: "error"
//     error: string
package types
